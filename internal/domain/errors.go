package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
)
