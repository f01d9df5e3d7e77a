package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("range conflicts with a confirmed or blocked booking")
	ErrInvalidRange   = errors.New("invalid date range")
	ErrMalformedSheet = errors.New("availability sheet is malformed")
)
