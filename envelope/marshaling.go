package envelope

import (
	"github.com/dogmatiq/dogma"
	"github.com/dogmatiq/marshalkit"
)

// UnmarshalMessage unmarshals the message contained in env, populating
// env.Message.
//
// It is a no-op if the message has already been unmarshaled.
func UnmarshalMessage(
	m marshalkit.ValueMarshaler,
	env *Envelope,
) error {
	if env.Message != nil {
		return nil
	}

	v, err := m.Unmarshal(env.Packet)
	if err != nil {
		return err
	}

	env.Message = v.(dogma.Message)

	return nil
}

// MustUnmarshalMessage unmarshals the message contained in env, or panics if
// it is unable to do so.
func MustUnmarshalMessage(
	m marshalkit.ValueMarshaler,
	env *Envelope,
) dogma.Message {
	if err := UnmarshalMessage(m, env); err != nil {
		panic(err)
	}

	return env.Message
}
