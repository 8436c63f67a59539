package queue

import (
	"context"

	"github.com/dogmatiq/morgue/deadletter"
)

// A Queue is an ordered collection of dead letters, grouped into sequences
// that are retried strictly head-first.
//
// Implementations must linearize operations that target the same sequence ID.
// Operations on different sequence IDs must not block one another.
type Queue interface {
	// Enqueue adds l to the tail of the sequence identified by sid, creating
	// the sequence if it does not exist.
	//
	// It returns the letter as stored, with its timestamps populated. It
	// returns an OverflowError if sid is a new sequence and the queue is at
	// its sequence limit, or if the sequence is at its size limit. Capacity
	// checks are atomic with the insertion they guard.
	Enqueue(ctx context.Context, sid string, l deadletter.Letter) (deadletter.Letter, error)

	// EnqueueIfPresent adds the letter produced by supply to the sequence
	// identified by sid, but only if that sequence already contains at least
	// one letter.
	//
	// It returns false, without invoking supply, if the sequence does not
	// exist. This is used to append follow-up failures to a blocked sequence
	// without creating new sequences.
	EnqueueIfPresent(ctx context.Context, sid string, supply func() deadletter.Letter) (deadletter.Letter, bool, error)

	// Evict removes l from its sequence, matching by letter ID. If the
	// eviction empties the sequence, the sequence itself is removed.
	//
	// Evicting a letter that is not present is a no-op, not an error, so
	// that eviction may be retried safely. It returns an InvalidLetterError
	// if l was never produced by a queue.
	Evict(ctx context.Context, l deadletter.Letter) error

	// Requeue replaces the stored letter's cause and diagnostics as
	// prescribed by d, updates its last-touched time, and returns the
	// updated letter.
	//
	// The letter keeps its position within its sequence. It returns an
	// UnknownLetterError if the letter is no longer stored, such as when it
	// has been evicted or requeued concurrently.
	Requeue(ctx context.Context, l deadletter.Letter, d deadletter.Decision) (deadletter.Letter, error)

	// Contains returns true if the sequence identified by sid contains any
	// letters.
	Contains(ctx context.Context, sid string) (bool, error)

	// Head returns the first letter of the sequence identified by sid.
	//
	// ok is false if the sequence does not exist.
	Head(ctx context.Context, sid string) (l deadletter.Letter, ok bool, err error)

	// LetterSequence returns the letters of the sequence identified by sid,
	// in insertion order.
	//
	// The result is a snapshot taken at the time of the call; it is empty if
	// the sequence does not exist.
	LetterSequence(ctx context.Context, sid string) ([]deadletter.Letter, error)

	// SequenceIDs returns a snapshot of the IDs of all sequences held by the
	// queue, ordered oldest-first by the last-touched time of each
	// sequence's head letter, so that repeated processing visits sequences
	// fairly.
	SequenceIDs(ctx context.Context) ([]string, error)

	// AmountOfSequences returns the number of distinct sequences held by the
	// queue.
	AmountOfSequences(ctx context.Context) (int, error)

	// SequenceSize returns the number of letters in the sequence identified
	// by sid, or zero if the sequence does not exist.
	SequenceSize(ctx context.Context, sid string) (int, error)

	// IsFull returns true if no further letter can be enqueued on the
	// sequence identified by sid, either because the sequence is at its size
	// limit, or because the sequence does not exist and the queue is at its
	// sequence limit.
	IsFull(ctx context.Context, sid string) (bool, error)

	// Claim acquires an exclusive, releasable hold on the sequence
	// identified by sid, preventing it from being processed concurrently.
	//
	// It returns false if the sequence is already claimed. Claims do not
	// expire; they are released explicitly via Release.
	Claim(ctx context.Context, sid string) (bool, error)

	// Release relinquishes a claim previously acquired via Claim. Releasing
	// an unclaimed sequence is a no-op.
	Release(ctx context.Context, sid string) error

	// Clear removes all sequences and letters belonging to this queue's
	// processing group.
	Clear(ctx context.Context) error
}

const (
	// DefaultMaxSequences is the default maximum number of distinct
	// sequences a queue may hold.
	DefaultMaxSequences = 256

	// DefaultMaxSequenceSize is the default maximum number of letters a
	// single sequence may hold.
	DefaultMaxSequenceSize = 256

	// MinimumCapacity is the lowest permitted value for either limit. Bounds
	// below this make head-of-line blocking pathological under even modest
	// bursts of failures.
	MinimumCapacity = 128
)

// Limits is the set of capacity bounds enforced by a queue.
type Limits struct {
	// MaxSequences is the maximum number of distinct sequences the queue may
	// hold at once. If it is zero, DefaultMaxSequences is used.
	MaxSequences int

	// MaxSequenceSize is the maximum number of letters a single sequence may
	// hold. If it is zero, DefaultMaxSequenceSize is used.
	MaxSequenceSize int
}

// WithDefaults returns a copy of l with any zero-valued limit replaced by its
// default.
func (l Limits) WithDefaults() Limits {
	if l.MaxSequences == 0 {
		l.MaxSequences = DefaultMaxSequences
	}

	if l.MaxSequenceSize == 0 {
		l.MaxSequenceSize = DefaultMaxSequenceSize
	}

	return l
}

// Validate returns a ConfigurationError if either limit is negative or below
// MinimumCapacity.
func (l Limits) Validate() error {
	if l.MaxSequences < MinimumCapacity {
		return ConfigurationError{
			Setting: "maximum number of sequences",
			Value:   l.MaxSequences,
		}
	}

	if l.MaxSequenceSize < MinimumCapacity {
		return ConfigurationError{
			Setting: "maximum sequence size",
			Value:   l.MaxSequenceSize,
		}
	}

	return nil
}
