package memory

import "errors"

var (
	// ErrValidation marks malformed input to store or recall
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an update addressing a memory that does not exist
	ErrNotFound = errors.New("memory not found")

	// ErrPersistenceUnavailable marks an unreachable gateway or a failed query
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
