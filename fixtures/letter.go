package fixtures

import (
	"github.com/dogmatiq/dogma"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/google/uuid"
)

// NewLetter returns a new dead letter containing the given message.
//
// If id is empty, a new UUID is generated. If err is nil the letter carries
// no cause.
func NewLetter(
	id string,
	sid string,
	m dogma.Message,
	err error,
) deadletter.Letter {
	if id == "" {
		id = uuid.New().String()
	}

	l := deadletter.Letter{
		ID:         id,
		SequenceID: sid,
		Envelope:   NewEnvelope("", m),
	}

	if err != nil {
		c := deadletter.CauseOf(err)
		l.Cause = &c
	}

	return l
}
