package errors

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid reputation input")
	ErrProfileNotFound = errors.New("worker profile not found")
	ErrConflict        = errors.New("reputation state conflict")
)
