package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

// mockItems are the identifications returned by MockIdentifier.
var mockItems = []appraisal.IdentificationResult{
	{
		Brand:          "Nike",
		Model:          "Air Jordan 1 Retro High OG",
		Condition:      "Excellent",
		Color:          "Chicago Red/White/Black",
		Category:       "Sneakers",
		RawDescription: "Classic high-top basketball sneaker",
	},
	{
		Brand:          "Apple",
		Model:          "iPhone 14 Pro",
		Condition:      "Good",
		Color:          "Space Black",
		Category:       "Electronics",
		RawDescription: "Smartphone with minor scratches",
	},
	{
		Brand:          "Vintage",
		Model:          "1985 Coca-Cola Sign",
		Condition:      "Fair",
		Color:          "Red/White",
		Category:       "Vintage",
		RawDescription: "Original metal advertising sign",
	},
}

// MockIdentifier returns canned identifications for development without a
// Gemini API key. The item is chosen from the image content, so the same photo
// always yields the same item.
type MockIdentifier struct {
	pinned int
}

// NewMockIdentifier creates a MockIdentifier that picks an item by image hash.
func NewMockIdentifier() *MockIdentifier {
	return &MockIdentifier{pinned: -1}
}

// NewPinnedMockIdentifier creates a MockIdentifier that always returns the
// item at index i (modulo the number of canned items).
func NewPinnedMockIdentifier(i int) *MockIdentifier {
	if i < 0 {
		i = -i
	}
	return &MockIdentifier{pinned: i % len(mockItems)}
}

// Identify implements appraisal.Identifier.
func (m *MockIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	if err := ctx.Err(); err != nil {
		return appraisal.IdentificationResult{}, err
	}
	idx := m.pinned
	if idx < 0 {
		sum := blake2b.Sum256(image)
		idx = int(sum[0]) % len(mockItems)
	}
	return mockItems[idx], nil
}

// FallbackIdentifier turns identification failures into a placeholder result
// with an unknown category, so a scan still produces a report. Cancellation is
// passed through unchanged.
type FallbackIdentifier struct {
	inner appraisal.Identifier
}

// NewFallbackIdentifier wraps inner with placeholder-on-failure behaviour.
func NewFallbackIdentifier(inner appraisal.Identifier) *FallbackIdentifier {
	return &FallbackIdentifier{inner: inner}
}

// Identify implements appraisal.Identifier.
func (f *FallbackIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	result, err := f.inner.Identify(ctx, image)
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return appraisal.IdentificationResult{}, err
	}

	cause := err
	var idErr *appraisal.IdentificationError
	if errors.As(err, &idErr) && idErr.Err != nil {
		cause = idErr.Err
	}

	zerolog.Ctx(ctx).Error().Err(err).Msg("identification failed, using placeholder")
	return appraisal.IdentificationResult{
		Category:       appraisal.UnknownCategory,
		RawDescription: fmt.Sprintf("Unable to identify item: %v", cause),
	}, nil
}
