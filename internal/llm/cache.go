package llm

import (
	"context"
	"encoding/hex"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

// IdentificationCache persists identifications keyed by image hash.
// A miss is reported as (nil, nil).
type IdentificationCache interface {
	GetIdentification(imageHash string) (*appraisal.IdentificationResult, error)
	SetIdentification(imageHash string, result appraisal.IdentificationResult) error
}

// CachedIdentifier wraps an Identifier with a persistent cache.
type CachedIdentifier struct {
	inner appraisal.Identifier
	store IdentificationCache
}

// NewCachedIdentifier creates a cached identifier.
func NewCachedIdentifier(inner appraisal.Identifier, store IdentificationCache) *CachedIdentifier {
	return &CachedIdentifier{inner: inner, store: store}
}

// hashImage returns the hex blake2b-256 digest of the image bytes.
func hashImage(image []byte) string {
	sum := blake2b.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Identify implements appraisal.Identifier with caching.
func (c *CachedIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	logger := zerolog.Ctx(ctx)
	hash := hashImage(image)

	if c.store != nil {
		cached, err := c.store.GetIdentification(hash)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to check identification cache")
		} else if cached != nil {
			logger.Debug().Str("hash", hash[:16]).Msg("identification cache hit")
			return *cached, nil
		}
	}

	result, err := c.inner.Identify(ctx, image)
	if err != nil {
		return appraisal.IdentificationResult{}, err
	}

	if c.store != nil && worthCaching(result) {
		if err := c.store.SetIdentification(hash, result); err != nil {
			logger.Warn().Err(err).Msg("failed to cache identification")
		} else {
			logger.Debug().Str("hash", hash[:16]).Msg("cached identification")
		}
	}

	return result, nil
}

// worthCaching skips placeholder results so a bad answer is retried on the
// next scan of the same photo.
func worthCaching(r appraisal.IdentificationResult) bool {
	return r.Brand != "" || r.Model != "" || r.HasKnownCategory()
}
