package domain

import "errors"

// Error categories returned by the services. Callers wrap them with context
// using fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)
