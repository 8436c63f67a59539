package deadletter

// Decision describes what a queue should do with a dead letter after a
// handling attempt.
//
// There are exactly two decisions: the one produced by Ignore(), and the one
// produced by Enqueue() or Requeue(). Eviction is not a decision; it is
// signaled by the handler reporting success, and applied by the processor as
// an explicit queue operation.
type Decision interface {
	// ShouldEnqueue returns true if the letter should be enqueued, or remain
	// enqueued, for a later retry.
	ShouldEnqueue() bool

	// EnqueueCause returns the cause to record against the letter when it is
	// enqueued, if there is one.
	EnqueueCause() (Cause, bool)

	// WithDiagnostics returns a copy of l bearing the diagnostics this
	// decision prescribes for it.
	//
	// For the decision produced by Ignore() it returns l unchanged. For
	// enqueue decisions it replaces l's diagnostics outright; merging with
	// the letter's existing diagnostics is the caller's choice, via
	// Letter.AndDiagnostics.
	WithDiagnostics(l Letter) Letter

	// isDecision prevents decisions being defined outside this package, so
	// that queue implementations can rely on the two variants above being
	// exhaustive.
	isDecision()
}

// Ignore returns the decision to leave a letter as it is, neither retrying
// nor evicting it.
func Ignore() Decision {
	return ignore{}
}

// Enqueue returns the decision to enqueue a letter, recording err as its
// cause.
//
// err may be nil, in which case the letter's existing cause (if any) is
// retained.
func Enqueue(err error) Decision {
	return Requeue(err, nil)
}

// Requeue returns the decision to enqueue a letter, recording err as its
// cause and replacing its diagnostics with the result of diagnose.
//
// diagnose is called with the letter as it is currently stored. If it is nil
// the letter's diagnostics are left unchanged.
func Requeue(
	err error,
	diagnose func(Letter) Diagnostics,
) Decision {
	d := shouldEnqueue{
		diagnose: diagnose,
	}

	if err != nil {
		c := CauseOf(err)
		d.cause = &c
	}

	return d
}

// ignore is the decision produced by Ignore().
type ignore struct{}

func (ignore) ShouldEnqueue() bool {
	return false
}

func (ignore) EnqueueCause() (Cause, bool) {
	return Cause{}, false
}

func (ignore) WithDiagnostics(l Letter) Letter {
	return l
}

func (ignore) isDecision() {}

// shouldEnqueue is the decision produced by Enqueue() and Requeue().
type shouldEnqueue struct {
	cause    *Cause
	diagnose func(Letter) Diagnostics
}

func (d shouldEnqueue) ShouldEnqueue() bool {
	return true
}

func (d shouldEnqueue) EnqueueCause() (Cause, bool) {
	if d.cause == nil {
		return Cause{}, false
	}

	return *d.cause, true
}

func (d shouldEnqueue) WithDiagnostics(l Letter) Letter {
	if d.diagnose == nil {
		return l
	}

	l.Diagnostics = d.diagnose(l)

	return l
}

func (d shouldEnqueue) isDecision() {}
