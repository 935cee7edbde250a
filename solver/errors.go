package solver

import "errors"

var (
	// ErrUnknownMethod is returned for a method name that is not registered.
	ErrUnknownMethod = errors.New("solver: unknown method")

	// ErrUnsupported is returned when a method cannot handle the problem shape.
	ErrUnsupported = errors.New("solver: method does not support problem")
)
