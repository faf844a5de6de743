package janitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultPruneInterval is how often expired cache entries are removed.
	DefaultPruneInterval = 24 * time.Hour

	// DefaultMaxAge is how long an identification stays cached.
	DefaultMaxAge = 30 * 24 * time.Hour
)

// Pruner deletes cache entries older than maxAge.
type Pruner interface {
	PruneIdentifications(maxAge time.Duration) (int64, error)
}

// Service periodically prunes the identification cache so a stale answer for
// a photo is eventually asked for again.
type Service struct {
	pruner   Pruner
	maxAge   time.Duration
	interval time.Duration
}

// NewService creates a janitor for pruner. Zero durations use the defaults.
func NewService(pruner Pruner, maxAge, interval time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &Service{pruner: pruner, maxAge: maxAge, interval: interval}
}

// Run prunes once immediately and then on every interval. It blocks until
// the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Dur("maxAge", s.maxAge).Msg("starting cache janitor")

	s.prune()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("cache janitor stopped")
			return
		case <-ticker.C:
			s.prune()
		}
	}
}

func (s *Service) prune() {
	removed, err := s.pruner.PruneIdentifications(s.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune identification cache")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("pruned identification cache")
	}
}
