package domain

import "errors"

// Configuration errors: fail fast, non-retryable, surfaced to the caller.
// Data absence (no observations in a window, missing elevation pair) is
// never an error; assessors degrade to neutral results instead.
var (
	ErrUnknownVariety   = errors.New("unknown variety")
	ErrFieldNotFound    = errors.New("field not found")
	ErrNoStation        = errors.New("field has no weather station assigned")
	ErrNoTransplantDate = errors.New("field has no transplant date")
)
