package deadletter

import (
	"fmt"
)

// MaxCauseMessageSize is the maximum length, in bytes, of a cause's
// description. Longer descriptions are truncated when the cause is
// constructed.
const MaxCauseMessageSize = 1024

// Cause describes the failure that resulted in a message being dead-lettered.
type Cause struct {
	// Type is the Go type of the error that caused the failure.
	Type string

	// Message is the error's description.
	Message string
}

// CauseOf returns a cause describing err.
//
// The error's description is truncated to MaxCauseMessageSize bytes so that
// the cause remains storable in backends with bounded column sizes.
func CauseOf(err error) Cause {
	m := err.Error()
	if len(m) > MaxCauseMessageSize {
		m = m[:MaxCauseMessageSize]
	}

	return Cause{
		Type:    fmt.Sprintf("%T", err),
		Message: m,
	}
}

func (c Cause) String() string {
	return fmt.Sprintf("%s: %s", c.Type, c.Message)
}
