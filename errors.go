package shipit

import "errors"

// Sentinel errors for stream and request handling.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamNotReady indicates Message() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// Sentinel errors for tool execution. Every tool failure wraps exactly one of
// these so it can be reported to the model by kind.
var (
	// ErrAccessDenied indicates the path is denylisted or escapes the workspace.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound indicates the file or directory does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIO indicates a read or write failure.
	ErrIO = errors.New("i/o error")

	// ErrProtocolViolation indicates an unknown tool name or malformed arguments.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrPublish indicates the pull request could not be staged, committed,
	// pushed, or opened. It is the only tool failure that aborts a run.
	ErrPublish = errors.New("publish failure")
)

// ErrorKind returns the taxonomy name of err, or "Unknown" if err wraps none
// of the tool sentinel errors.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return "AccessDenied"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrIO):
		return "IOError"
	case errors.Is(err, ErrProtocolViolation):
		return "ProtocolViolation"
	case errors.Is(err, ErrPublish):
		return "PublishFailure"
	default:
		return "Unknown"
	}
}
