package domain

import "errors"

// errors
var (
	// ErrInvalidArgument is returned when a lookup is given an empty id or key,
	// or when a component is configured with values it cannot work with.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorage wraps every failure to prepare or execute a query.
	// The operation that returned it must be treated as not having happened.
	ErrStorage = errors.New("storage failure")

	// ErrCollision is returned by a store when an insert violates the uniqueness of a key.
	// It is always returned together with ErrStorage.
	ErrCollision = errors.New("key already in use")
)
