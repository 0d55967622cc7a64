package domain

import (
	"fmt"
	"strings"
)

// AuthError means the caller has no usable session or Google access token.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Err)
	}
	return "unauthorized: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError is a failed mail API call. Op names the failing operation.
type ProviderError struct {
	Op         string
	MessageIDs []string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "mail provider: " + e.Op + " failed"
	if len(e.MessageIDs) > 0 {
		msg += fmt.Sprintf(" for %d message(s) [%s]", len(e.MessageIDs), strings.Join(e.MessageIDs, ","))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input and names the offending message.
type ValidationError struct {
	MessageID string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s on message %s: %s", e.Field, e.MessageID, e.Reason)
}
