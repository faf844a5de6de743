package appraisal

import "fmt"

// IdentificationError is returned when the identification service fails.
type IdentificationError struct {
	Err error
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("identification failed: %v", e.Err)
}

func (e *IdentificationError) Unwrap() error {
	return e.Err
}

// PricingError is returned when the price lookup service fails.
type PricingError struct {
	Query string
	Err   error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("price lookup failed for %q: %v", e.Query, e.Err)
}

func (e *PricingError) Unwrap() error {
	return e.Err
}
