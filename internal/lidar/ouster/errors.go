package ouster

import "errors"

// Contract violations surfaced to callers as typed errors. Wrapped errors
// carry the offending values; match with errors.Is.
var (
	ErrInvalidShape        = errors.New("invalid shape")
	ErrShapeMismatch       = errors.New("shape does not match buffer extent")
	ErrInsufficientSamples = errors.New("insufficient samples for shape")
	ErrInvalidMatrix       = errors.New("transform matrix must have 16 elements")
	ErrUnknownLidarMode    = errors.New("unknown lidar mode")
	ErrInvalidMetadata     = errors.New("invalid metadata")
)
