package appraisal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowedImageType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/webp", "image/heic"} {
		assert.True(t, IsAllowedImageType(ct), ct)
	}
	for _, ct := range []string{"image/gif", "image/svg+xml", "application/pdf", ""} {
		assert.False(t, IsAllowedImageType(ct), ct)
	}
}
