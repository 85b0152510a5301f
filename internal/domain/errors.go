package domain

import "errors"

// Sentinel errors shared across services and adapters.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrEventNotFound = errors.New("event not found")
	ErrDayNotFound   = errors.New("day not found in event")
	ErrInvalidInput  = errors.New("invalid input")
)
