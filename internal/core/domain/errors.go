package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServiceUnavailable indicates an upstream model service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrModelsNotReady indicates the embedding/generation models are not loaded yet
	ErrModelsNotReady = errors.New("models not ready")
)
