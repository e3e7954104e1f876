package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed failure taxonomy every adapter failure maps into.
type ErrorKind string

const (
	// KindInvalidRequest covers unknown vendors and malformed configuration or input.
	// It is raised before any network activity.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindAuthFailure covers rejected or missing credentials.
	KindAuthFailure ErrorKind = "auth_failure"
	// KindRateLimited covers upstream throttling.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNetworkFailure covers transport errors, upstream 5xx and timeouts.
	KindNetworkFailure ErrorKind = "network_failure"
	// KindUpstreamMalformed covers vendor data the adapter could not interpret.
	KindUpstreamMalformed ErrorKind = "upstream_malformed"
	// KindCancelled is a user initiated stop. It is never surfaced as an error event.
	KindCancelled ErrorKind = "cancelled"
	// KindUnknown is the catch-all.
	KindUnknown ErrorKind = "unknown"
)

// Sentinel errors matching each kind via errors.Is.
var (
	ErrInvalidRequest    = errors.New("llmgate: invalid request")
	ErrAuthFailure       = errors.New("llmgate: authentication failed")
	ErrRateLimited       = errors.New("llmgate: rate limited")
	ErrNetworkFailure    = errors.New("llmgate: network failure")
	ErrUpstreamMalformed = errors.New("llmgate: malformed upstream data")
	ErrCancelled         = errors.New("llmgate: cancelled")
	ErrUnknown           = errors.New("llmgate: unknown failure")
)

var sentinels = map[ErrorKind]error{
	KindInvalidRequest:    ErrInvalidRequest,
	KindAuthFailure:       ErrAuthFailure,
	KindRateLimited:       ErrRateLimited,
	KindNetworkFailure:    ErrNetworkFailure,
	KindUpstreamMalformed: ErrUpstreamMalformed,
	KindCancelled:         ErrCancelled,
	KindUnknown:           ErrUnknown,
}

// Error is a classified failure. It is the only error shape that crosses the
// gateway boundary.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Vendor     Vendor    `json:"vendor,omitempty"`
	StatusCode int       `json:"status_code,omitempty"` // upstream HTTP status when known
	Timeout    bool      `json:"timeout,omitempty"`
	Cause      error     `json:"-"`
}

// NewError creates a classified error.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Errorf creates a classified error with a formatted message and no cause.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Vendor != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Vendor, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel of the same kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// WithVendor returns a copy tagged with the vendor that produced it.
func (e *Error) WithVendor(v Vendor) *Error {
	cp := *e
	cp.Vendor = v
	return &cp
}
