package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrCorruptData     = errors.New("corrupt ticket data")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
