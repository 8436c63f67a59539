package deadletter

import (
	"time"

	"github.com/dogmatiq/morgue/envelope"
	"github.com/google/uuid"
)

// Letter is a message that could not be handled and is held for a later
// retry.
//
// Letters are immutable values. The "mutator" methods return modified copies,
// leaving the receiver untouched, as a letter may be read concurrently by
// enumeration operations while a copy of it is being prepared for requeueing.
type Letter struct {
	// ID uniquely identifies the letter.
	//
	// It is assigned when the letter is created, and is never reused, even
	// after the letter is evicted.
	ID string

	// SequenceID is the key that groups letters which must be retried
	// strictly in the order they were enqueued.
	SequenceID string

	// Envelope contains the failed message.
	Envelope *envelope.Envelope

	// Cause describes the failure that dead-lettered the message.
	//
	// It is nil for letters appended to an already-blocked sequence, which
	// are enqueued before they are ever handled.
	Cause *Cause

	// EnqueuedAt is the time at which the letter was first enqueued.
	EnqueuedAt time.Time

	// LastTouched is the time at which the letter was last enqueued or
	// requeued. It is never before EnqueuedAt.
	LastTouched time.Time

	// Diagnostics accumulates information about the handling attempts made
	// for this letter.
	Diagnostics Diagnostics
}

// New returns a letter containing the message in env, dead-lettered because
// of err.
//
// err may be nil, in which case the letter carries no cause. This is used for
// "follow-up" letters that are enqueued onto a sequence that is already
// blocked by an earlier failure.
//
// The letter's timestamps are zero until it is enqueued.
func New(sequenceID string, env *envelope.Envelope, err error) Letter {
	l := Letter{
		ID:         uuid.NewString(),
		SequenceID: sequenceID,
		Envelope:   env,
	}

	if err != nil {
		c := CauseOf(err)
		l.Cause = &c
	}

	return l
}

// WithCause returns a copy of l with its cause replaced by a cause describing
// err.
//
// If err is nil the existing cause is retained.
func (l Letter) WithCause(err error) Letter {
	if err != nil {
		c := CauseOf(err)
		l.Cause = &c
	}

	return l
}

// AndDiagnostics returns a copy of l with d merged into its diagnostics.
//
// Existing keys are retained unless overwritten by d.
func (l Letter) AndDiagnostics(d Diagnostics) Letter {
	l.Diagnostics = l.Diagnostics.Merge(d)
	return l
}
