// Package app wires configuration into a ready appraisal pipeline. It is
// shared by the API server and the command line tool.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/raine/lootlook/internal/config"
	"github.com/raine/lootlook/internal/llm"
	"github.com/raine/lootlook/internal/metrics"
	"github.com/raine/lootlook/internal/pricing"
	"github.com/raine/lootlook/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Pipeline is an appraiser plus the resources backing it.
type Pipeline struct {
	Appraiser *appraisal.Appraiser

	// Mode names the port implementations in use, for logs and diagnostics.
	IdentifierMode string
	PricerMode     string

	store *storage.SQLiteStore
}

// Cache returns the identification cache store, or nil when caching is disabled.
func (p *Pipeline) Cache() *storage.SQLiteStore {
	return p.store
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// NewPipeline builds the appraisal pipeline from cfg. Real ports are used when
// their API keys are configured and deterministic mocks otherwise. m may be nil.
func NewPipeline(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*Pipeline, error) {
	p := &Pipeline{}

	var identifier appraisal.Identifier
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiIdentifier(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini identifier: %w", err)
		}
		identifier = gemini
		p.IdentifierMode = "gemini"
		log.Info().Str("model", cfg.GeminiModel).Msg("gemini identifier initialized")
	} else if cfg.AnthropicAPIKey != "" {
		claude, err := llm.NewClaudeIdentifier(llm.ClaudeConfig{
			APIKey:     cfg.AnthropicAPIKey,
			Model:      cfg.AnthropicModel,
			Timeout:    cfg.RequestTimeout,
			MaxRetries: 2,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize claude identifier: %w", err)
		}
		identifier = claude
		p.IdentifierMode = "claude"
		log.Info().Str("model", cfg.AnthropicModel).Msg("claude identifier initialized")
	} else {
		identifier = llm.NewMockIdentifier()
		p.IdentifierMode = "mock"
		log.Warn().Msg("GEMINI_API_KEY and ANTHROPIC_API_KEY not set, using mock identifier")
	}

	if cfg.CacheDBPath != "" {
		store, err := storage.NewSQLiteStore(cfg.CacheDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize identification cache: %w", err)
		}
		p.store = store
		identifier = llm.NewCachedIdentifier(identifier, store)
		log.Info().Str("dbPath", cfg.CacheDBPath).Msg("identification caching enabled")
	}

	identifier = metrics.InstrumentIdentifier(identifier, m)
	if cfg.IdentifyFallback {
		identifier = llm.NewFallbackIdentifier(identifier)
	}

	var pricer appraisal.Pricer
	if cfg.SerpAPIKey != "" {
		serp, err := pricing.NewSerpAPIClient(pricing.SerpAPIConfig{
			APIKey:        cfg.SerpAPIKey,
			BaseURL:       cfg.SerpAPIBaseURL,
			RatePerSecond: cfg.SerpAPIRatePerSecond,
			Timeout:       cfg.RequestTimeout,
		})
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to initialize serpapi client: %w", err)
		}
		pricer = serp
		p.PricerMode = "serpapi"
		log.Info().Float64("ratePerSecond", cfg.SerpAPIRatePerSecond).Msg("serpapi pricer initialized")
	} else {
		pricer = pricing.NewMockPricer()
		p.PricerMode = "mock"
		log.Warn().Msg("SERPAPI_KEY not set, using mock pricer")
	}
	pricer = metrics.InstrumentPricer(pricer, m)

	p.Appraiser = appraisal.NewAppraiser(identifier, pricer)
	return p, nil
}

// NewLogger builds the process logger from cfg and installs it as the global
// and default context logger.
func NewLogger(cfg config.Config, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	if out == nil {
		out = os.Stderr
	}
	if cfg.LogFormat == config.LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger, nil
}
