package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentifier struct {
	result appraisal.IdentificationResult
	err    error
	calls  int
}

func (s *stubIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	s.calls++
	return s.result, s.err
}

func TestMockIdentifier_IsDeterministic(t *testing.T) {
	m := NewMockIdentifier()
	ctx := context.Background()

	first, err := m.Identify(ctx, []byte("photo-a"))
	require.NoError(t, err)
	second, err := m.Identify(ctx, []byte("photo-a"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, mockItems, first)
}

func TestPinnedMockIdentifier(t *testing.T) {
	got, err := NewPinnedMockIdentifier(1).Identify(context.Background(), []byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, "iPhone 14 Pro", got.Model)

	got, err = NewPinnedMockIdentifier(5).Identify(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "1985 Coca-Cola Sign", got.Model)
}

func TestMockIdentifier_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockIdentifier().Identify(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackIdentifier_PassesThroughSuccess(t *testing.T) {
	inner := &stubIdentifier{result: mockItems[0]}

	got, err := NewFallbackIdentifier(inner).Identify(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, mockItems[0], got)
}

func TestFallbackIdentifier_DegradesOnFailure(t *testing.T) {
	inner := &stubIdentifier{err: &appraisal.IdentificationError{Err: errors.New("quota exceeded")}}

	got, err := NewFallbackIdentifier(inner).Identify(context.Background(), []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, appraisal.IdentificationResult{
		Category:       appraisal.UnknownCategory,
		RawDescription: "Unable to identify item: quota exceeded",
	}, got)
}

func TestFallbackIdentifier_KeepsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &stubIdentifier{err: context.Canceled}

	_, err := NewFallbackIdentifier(inner).Identify(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
