package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrMalformedClause  = errors.New("malformed clause")
	ErrDuplicateBuiltin = errors.New("duplicate built-in")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
