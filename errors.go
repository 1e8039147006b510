package apm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry reports a bad sample rate / channel count
	// combination at configuration time. The caller may retry with
	// corrected parameters.
	ErrInvalidGeometry = errors.New("apm: invalid stream geometry")

	// ErrProcessorClosed reports a call on a processor after Close.
	ErrProcessorClosed = errors.New("apm: processor is closed")
)

// InitializationError reports that the engine rejected its
// configuration during construction. No processor is created and no
// partial resources are retained.
type InitializationError struct {
	Code Status
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("apm: initialization failed: %s (%d)", e.Code, e.Code)
}

// ProcessingError reports a non-success status from a per-frame call,
// for callers using the error-returning convenience wrappers. The
// frame's buffer content is unspecified on failure.
type ProcessingError struct {
	Code Status
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("apm: frame processing failed: %s (%d)", e.Code, e.Code)
}

// statusErr maps a status code onto the error-returning API surface.
func statusErr(code Status) error {
	if IsSuccess(code) {
		return nil
	}
	if code == StatusNotInitialized {
		return ErrProcessorClosed
	}
	return &ProcessingError{Code: code}
}
