package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrOverloaded indicates the provider signalled transient overload
// (429 rate limit or 5xx capacity errors). Callers retry these with
// exponential backoff; everything else is treated as permanent.
type ErrOverloaded struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrOverloaded) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider overloaded (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("provider overloaded: %v", e.Err)
}

func (e *ErrOverloaded) Unwrap() error { return e.Err }

// IsOverloaded reports whether err carries the transient-overload signal.
func IsOverloaded(err error) bool {
	var overloaded *ErrOverloaded
	return errors.As(err, &overloaded)
}

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated: max tokens exceeded"
}

// checkTruncation converts a max_tokens stop into the typed error so
// callers can tell truncation apart from malformed output.
func checkTruncation(stopReason string, content json.RawMessage) error {
	if stopReason == "max_tokens" {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return nil
}
