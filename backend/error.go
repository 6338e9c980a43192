// Package backend defines the external GPU backend contract corepool
// consumes (§6): the function surface that buffer/texture/pipeline
// creation, binding, drawing and telemetry are delegated to. corepool
// states this contract but never implements it -- the Vulkan command
// recording, shader compilation, and device plumbing behind a real
// implementation are out of scope (spec.md §1).
package backend

import "fmt"

// ErrorCode is the closed error taxonomy exposed at the backend boundary.
type ErrorCode int

const (
	None ErrorCode = iota
	InvalidParameter
	InvalidHandle
	OutOfMemory
	ResourceNotLoaded
	ResourceCreationFailed
	ShaderCompilationFailed
	DeviceError
	Unknown
)

// String returns the taxonomy's canonical name.
func (c ErrorCode) String() string {
	switch c {
	case None:
		return "NONE"
	case InvalidParameter:
		return "INVALID_PARAMETER"
	case InvalidHandle:
		return "INVALID_HANDLE"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case ResourceNotLoaded:
		return "RESOURCE_NOT_LOADED"
	case ResourceCreationFailed:
		return "RESOURCE_CREATION_FAILED"
	case ShaderCompilationFailed:
		return "SHADER_COMPILATION_FAILED"
	case DeviceError:
		return "DEVICE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error wraps an ErrorCode with a human-readable message and satisfies the
// error interface, so backend-surfaced failures compose with errors.Is /
// errors.As via the Code accessor.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError constructs a backend Error.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err, returning Unknown for any error
// that isn't a *Error, and None for a nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return None
	}
	if be, ok := err.(*Error); ok {
		return be.Code
	}
	return Unknown
}
