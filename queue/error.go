package queue

import (
	"fmt"
)

// ConfigurationError indicates that a queue was constructed with an invalid
// configuration. It is fatal; the queue is never constructed.
type ConfigurationError struct {
	// Setting is a description of the offending setting.
	Setting string

	// Value is the rejected value.
	Value int
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf(
		"the %s is set to %d, but it must be at least %d",
		e.Setting,
		e.Value,
		MinimumCapacity,
	)
}

// OverflowError indicates that enqueueing a letter would exceed one of the
// queue's capacity bounds. The queue's state is unchanged.
type OverflowError struct {
	// SequenceID is the sequence the letter was destined for.
	SequenceID string

	// Limit is the capacity bound that would have been exceeded.
	Limit int

	// NewSequence is true if the bound is the queue-wide limit on distinct
	// sequences, which applies only when sid would create a new sequence.
	// Otherwise the bound is the per-sequence size limit.
	NewSequence bool
}

func (e OverflowError) Error() string {
	if e.NewSequence {
		return fmt.Sprintf(
			"unable to enqueue dead letter on sequence '%s', the queue is at its limit of %d sequences",
			e.SequenceID,
			e.Limit,
		)
	}

	return fmt.Sprintf(
		"unable to enqueue dead letter on sequence '%s', the sequence is at its limit of %d letters",
		e.SequenceID,
		e.Limit,
	)
}

// UnknownLetterError indicates that a letter referenced by its ID is no
// longer stored, typically because it was evicted or requeued concurrently.
type UnknownLetterError struct {
	// LetterID is the ID of the unknown letter.
	LetterID string
}

func (e UnknownLetterError) Error() string {
	return fmt.Sprintf(
		"dead letter with ID '%s' does not exist",
		e.LetterID,
	)
}

// InvalidLetterError indicates misuse of the queue: the letter passed to an
// operation was never produced by a queue, such as a zero-valued letter or
// one that was never enqueued.
type InvalidLetterError struct {
	// Reason describes why the letter was rejected.
	Reason string
}

func (e InvalidLetterError) Error() string {
	return fmt.Sprintf(
		"dead letter is not valid: %s",
		e.Reason,
	)
}
