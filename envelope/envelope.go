package envelope

import (
	"errors"
	"time"

	"github.com/dogmatiq/configkit"
	"github.com/dogmatiq/dogma"
	"github.com/dogmatiq/marshalkit"
)

// Envelope is a container for a message and its meta-data.
type Envelope struct {
	MetaData

	// Message is the in-memory representation of the message, as used by the
	// application.
	//
	// It may be nil if the envelope has been loaded from a store but its
	// packet has not been unmarshaled.
	Message dogma.Message

	// PortableName is the unqualified name used to identify the message type
	// across process boundaries.
	PortableName string

	// Packet is the serialized representation of the message.
	Packet marshalkit.Packet
}

// MetaData is information about a message that is not part of the message
// itself.
type MetaData struct {
	// MessageID uniquely identifies the message.
	MessageID string

	// Source describes where the message originated.
	Source Source

	// CreatedAt is the time at which the message was created.
	CreatedAt time.Time

	// Description is a human-readable description of the message.
	Description string
}

// Source describes the origin of a message.
type Source struct {
	// Application is the identity of the application that produced the
	// message.
	Application configkit.Identity

	// Handler is the identity of the handler that failed to handle the
	// message. It may be the zero-value if the failure occurred before a
	// handler was selected.
	Handler configkit.Identity
}

// Validate returns an error if md is not fully populated.
func (md MetaData) Validate() error {
	if md.MessageID == "" {
		return errors.New("message ID must not be empty")
	}

	if md.CreatedAt.IsZero() {
		return errors.New("created-at time must not be zero")
	}

	return md.Source.Validate()
}

// Validate returns an error if s is not fully populated.
func (s Source) Validate() error {
	if err := s.Application.Validate(); err != nil {
		return err
	}

	if !s.Handler.IsZero() {
		return s.Handler.Validate()
	}

	return nil
}
