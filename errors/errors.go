package errors

import (
	"context"
	"errors"
	"fmt"
)

// Error is a push operation error with context about what failed.
type Error struct {
	// Op is the operation that failed (e.g. "upload", "list", "fingerprint").
	Op string

	// Key is the remote key or local path involved, if any.
	Key string

	// Code classifies the failure.
	Code ErrorCode

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("push.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("push.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithKey adds key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithCode overrides the error classification.
func (e *Error) WithCode(code ErrorCode) *Error {
	e.Code = code
	return e
}

// NewError creates a new Error, classifying err from its sentinel chain.
func NewError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Code: Classify(err),
		Err:  err,
	}
}

// NewKeyError creates a new Error with key context.
func NewKeyError(op, key string, err error) *Error {
	return NewError(op, err).WithKey(key)
}

// Sentinel errors. These can be used with errors.Is.
var (
	// ErrInvalidDestination indicates a destination URI that is not <scheme>://<bucket>.
	ErrInvalidDestination = errors.New(
		"destination should be in the format of <provider>://<bucket> e.g. s3://my-bucket-name",
	)

	// ErrUnsupportedProvider indicates a destination scheme with no registered provider.
	ErrUnsupportedProvider = errors.New("provider is not supported")

	// ErrMissingBucket indicates a provider was configured without a bucket or container.
	ErrMissingBucket = errors.New("bucket is required for provider options")

	// ErrNilProvider indicates Push was called without a storage provider.
	ErrNilProvider = errors.New("storage provider is required")

	// ErrNoFiles indicates Push was called without any file patterns.
	ErrNoFiles = errors.New("at least one file pattern is required")

	// ErrInvalidPattern indicates a malformed glob pattern.
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidInput indicates any other invalid argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrObjectNotFound indicates the remote object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied indicates the backend denied access.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotImplemented indicates the requested feature is not implemented.
	ErrNotImplemented = errors.New("not implemented")
)

// Classify maps an error chain to an ErrorCode.
func Classify(err error) ErrorCode {
	var pe *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe) && pe.Code != "":
		return pe.Code
	case errors.Is(err, ErrInvalidDestination),
		errors.Is(err, ErrUnsupportedProvider),
		errors.Is(err, ErrMissingBucket),
		errors.Is(err, ErrNilProvider):
		return CodeInvalidConfig
	case errors.Is(err, ErrNoFiles),
		errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrObjectNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAccessDenied):
		return CodeForbidden
	case errors.Is(err, ErrNotImplemented):
		return CodeNotImplemented
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeUnknown
	}
}

// IsObjectNotFound reports whether err indicates a missing remote object.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAccessDenied reports whether err indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidConfig reports whether err is a setup error.
func IsInvalidConfig(err error) bool {
	return Classify(err) == CodeInvalidConfig
}
