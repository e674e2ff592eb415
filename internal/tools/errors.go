package tools

import "errors"

var (
	// ErrToolTagEmpty indicates a tool with no directive tag.
	ErrToolTagEmpty = errors.New("tool tag must not be empty")

	// ErrToolExecuteNil indicates a tool with no implementation.
	ErrToolExecuteNil = errors.New("tool execute function must not be nil")

	// ErrToolAlreadyRegistered indicates a duplicate tag registration.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrToolNotFound indicates a lookup for an unregistered tag.
	ErrToolNotFound = errors.New("tool not found")
)
