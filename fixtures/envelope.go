// Package fixtures contains test fixtures for the morgue packages.
package fixtures

import (
	"strconv"
	"sync"
	"time"

	"github.com/dogmatiq/configkit"
	"github.com/dogmatiq/dogma"
	"github.com/dogmatiq/marshalkit"
	marshalkitfixtures "github.com/dogmatiq/marshalkit/fixtures"
	"github.com/dogmatiq/morgue/envelope"
	"github.com/google/uuid"
)

// NewEnvelope returns a new envelope containing the given message.
//
// If id is empty, a new UUID is generated.
//
// times can contain a single element, which is used as the created time. If
// it is absent the current time is used.
func NewEnvelope(
	id string,
	m dogma.Message,
	times ...time.Time,
) *envelope.Envelope {
	if id == "" {
		id = uuid.New().String()
	}

	packet := marshalkit.MustMarshal(marshalkitfixtures.Marshaler, m)

	_, n, err := packet.ParseMediaType()
	if err != nil {
		panic(err)
	}

	env := &envelope.Envelope{
		MetaData: envelope.MetaData{
			MessageID: id,
			Source: envelope.Source{
				Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
				Handler:     configkit.MustNewIdentity("<handler-name>", "0b0b0b0b-0b0b-40b0-80b0-0b0b0b0b0b0b"),
			},
			Description: dogma.DescribeMessage(m),
		},
		Message:      m,
		PortableName: n,
		Packet:       packet,
	}

	switch len(times) {
	case 0:
		env.MetaData.CreatedAt = time.Now()
	case 1:
		env.MetaData.CreatedAt = times[0]
	default:
		panic("too many times specified")
	}

	cleanseTime(&env.MetaData.CreatedAt)

	return env
}

// cleanseTime marshals/unmarshals time to strip any internal state that would
// not be transmitted across the network.
func cleanseTime(t *time.Time) {
	if t.IsZero() {
		*t = time.Time{}
		return
	}

	data, err := t.MarshalText()
	if err != nil {
		panic(err)
	}

	err = t.UnmarshalText(data)
	if err != nil {
		panic(err)
	}
}

// NewPacker returns an envelope packer that uses a deterministic ID sequence
// and clock.
//
// MessageID is a monotonically increasing integer, starting at 0. CreatedAt
// starts at 2000-01-01 00:00:00 UTC and increases by 1 second for each message.
func NewPacker() *envelope.Packer {
	var (
		m   sync.Mutex
		id  int64
		now = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	)

	return &envelope.Packer{
		Application: configkit.MustNewIdentity("<app-name>", "0a0a0a0a-0a0a-40a0-80a0-0a0a0a0a0a0a"),
		Marshaler:   marshalkitfixtures.Marshaler,
		GenerateID: func() string {
			m.Lock()
			defer m.Unlock()

			v := strconv.FormatInt(id, 10)
			id++

			return v
		},
		Now: func() time.Time {
			m.Lock()
			defer m.Unlock()

			v := now
			now = now.Add(1 * time.Second)

			return v
		},
	}
}
