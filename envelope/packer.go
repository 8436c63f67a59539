package envelope

import (
	"time"

	"github.com/dogmatiq/configkit"
	"github.com/dogmatiq/dogma"
	"github.com/dogmatiq/marshalkit"
	"github.com/google/uuid"
)

// Packer puts messages into envelopes.
type Packer struct {
	// Application is the identity of this application.
	Application configkit.Identity

	// Marshaler is the marshaler used to marshal messages.
	Marshaler marshalkit.ValueMarshaler

	// GenerateID is a function used to generate new message IDs. If it is
	// nil, a UUID is generated.
	GenerateID func() string

	// Now is a function used to get the current time. If it is nil,
	// time.Now() is used.
	Now func() time.Time
}

// Pack returns a new envelope containing the given message.
//
// handler identifies the handler that failed to handle the message. It may be
// the zero-value.
func (p *Packer) Pack(m dogma.Message, handler configkit.Identity) *Envelope {
	packet := marshalkit.MustMarshal(p.Marshaler, m)

	_, n, err := packet.ParseMediaType()
	if err != nil {
		// CODE COVERAGE: This branch would require the marshaler to violate
		// its own requirements on the format of the media-type.
		panic(err)
	}

	return &Envelope{
		MetaData: MetaData{
			MessageID: p.generateID(),
			Source: Source{
				Application: p.Application,
				Handler:     handler,
			},
			CreatedAt:   p.now(),
			Description: dogma.DescribeMessage(m),
		},
		Message:      m,
		PortableName: n,
		Packet:       packet,
	}
}

// now returns the current time.
func (p *Packer) now() time.Time {
	now := p.Now
	if now == nil {
		now = time.Now
	}

	return now()
}

// generateID generates a new message ID.
func (p *Packer) generateID() string {
	if p.GenerateID != nil {
		return p.GenerateID()
	}

	return uuid.New().String()
}
