package tutor

import "fmt"

// InputError reports a missing or malformed request field. It reaches
// the caller unchanged and causes no state mutation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SessionNotFoundError reports a lifecycle operation against an unknown
// session identifier.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("unknown session %q", e.SessionID)
}
