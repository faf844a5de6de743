package appraisal

import "slices"

// AllowedImageTypes lists the media types accepted for appraisal.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic"}

// IsAllowedImageType reports whether mediaType, lower-cased and without
// parameters, is one of AllowedImageTypes.
func IsAllowedImageType(mediaType string) bool {
	return slices.Contains(AllowedImageTypes, mediaType)
}
