// Package errcode defines the closed vocabulary of error codes returned to
// callers. Codes are created at the point of first detected failure and
// propagate unchanged to the response; they are never combined or rewrapped
// into a different code on the way out.
package errcode

import "errors"

// Code is a stable error identifier. The set below is closed: anything that
// does not carry one of these codes collapses to Unknown at the boundary.
type Code string

const (
	// Unknown is the generic fallback for failures with no dedicated code,
	// including browser launch failures and unexpected faults.
	Unknown Code = "UNKNOWN"

	// HTTPError means navigation completed but the document response was
	// not a 200.
	HTTPError Code = "HTTP_ERROR"

	// MissingParameters means a required request field was absent.
	MissingParameters Code = "MISSING_PARAMETERS"

	// InvalidParameters means a request field was present but out of range
	// or of the wrong shape for the selected mode.
	InvalidParameters Code = "INVALID_PARAMETERS"

	// InvalidTriggerParameters means the trigger mode or its delay was
	// malformed or out of range.
	InvalidTriggerParameters Code = "INVALID_TRIGGER_PARAMETERS"

	// UnsupportedURL means the target URL did not match any allow-listed
	// gateway prefix.
	UnsupportedURL Code = "UNSUPPORTED_URL"

	// CanvasCaptureFailed means the canvas selector matched nothing, matched
	// a non-canvas element, or its pixel data could not be decoded.
	CanvasCaptureFailed Code = "CANVAS_CAPTURE_FAILED"

	// Timeout means navigation did not complete within its budget.
	Timeout Code = "TIMEOUT"

	// PageEvaluateFailed means an in-page script evaluation raised.
	PageEvaluateFailed Code = "PAGE_EVALUATE_FAILED"
)

// known is the closed set. CodeOf refuses to surface anything else.
var known = map[Code]bool{
	Unknown:                  true,
	HTTPError:                true,
	MissingParameters:        true,
	InvalidParameters:        true,
	InvalidTriggerParameters: true,
	UnsupportedURL:           true,
	CanvasCaptureFailed:      true,
	Timeout:                  true,
	PageEvaluateFailed:       true,
}

// Error is an error carrying a Code and an optional underlying cause. The
// cause is for logs only and never reaches the caller.
type Error struct {
	Code  Code
	cause error
}

// New returns an Error with the given code and no cause.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Wrap returns an Error with the given code, retaining cause for logging.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.cause.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf maps any error onto the closed vocabulary. Errors that do not carry
// a known code degrade to Unknown, never leaking internal detail.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) && known[e.Code] {
		return e.Code
	}
	return Unknown
}
