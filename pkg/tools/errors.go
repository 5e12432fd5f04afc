package tools

import "errors"

var (
	// ErrUnknownCapability is returned when the engine asks for a
	// capability name that was never registered.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrDuplicateCapability is returned by Register when the name is
	// already taken.
	ErrDuplicateCapability = errors.New("duplicate capability")
)

// ToolError marks a failure inside a capability handler as recoverable:
// the orchestrator reports it back to the engine as a tool turn instead of
// terminating the session.
type ToolError struct {
	Err error
}

func (e *ToolError) Error() string {
	return e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
