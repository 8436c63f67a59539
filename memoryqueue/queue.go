// Package memoryqueue provides an implementation of queue.Queue that stores
// dead letters in memory.
package memoryqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/internal/x/syncx"
	"github.com/dogmatiq/morgue/queue"
)

// Queue is an implementation of queue.Queue that stores dead letters in
// memory.
//
// The queue's contents are lost when the process exits.
type Queue struct {
	limits queue.Limits
	now    func() time.Time

	// mutexes linearizes the mutating operations performed against each
	// sequence. Operations on distinct sequences proceed in parallel.
	mutexes syncx.MutexNamespace

	// claimMutexes holds the long-lived claims acquired via Claim(). It is
	// a separate namespace to mutexes so that claiming a sequence does not
	// block the operations performed on it.
	claimMutexes syncx.MutexNamespace

	// m guards the fields below. It is held only for the duration of a single
	// map or slice manipulation, never while waiting on a sequence mutex.
	m      sync.Mutex
	seqs   map[string]*sequence
	claims map[string]syncx.UnlockFunc
}

var _ queue.Queue = (*Queue)(nil)

// sequence is the set of letters sharing a sequence ID, in insertion order.
type sequence struct {
	letters []deadletter.Letter
}

// New returns a queue that stores dead letters in memory.
//
// Any zero-valued limit is replaced by its default before validation.
func New(limits queue.Limits, options ...Option) (*Queue, error) {
	limits = limits.WithDefaults()

	if err := limits.Validate(); err != nil {
		return nil, err
	}

	q := &Queue{
		limits: limits,
		now:    time.Now,
		seqs:   map[string]*sequence{},
		claims: map[string]syncx.UnlockFunc{},
	}

	for _, opt := range options {
		opt(q)
	}

	return q, nil
}

// Option configures the optional behavior of a queue.
type Option func(*Queue)

// WithClock returns an option that sets the clock used to assign letter
// timestamps.
//
// It is intended for testing. By default time.Now() is used.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// Enqueue adds l to the tail of the sequence identified by sid, creating the
// sequence if it does not exist.
func (q *Queue) Enqueue(
	ctx context.Context,
	sid string,
	l deadletter.Letter,
) (deadletter.Letter, error) {
	unlock, err := q.mutexes.Lock(ctx, sid)
	if err != nil {
		return deadletter.Letter{}, err
	}
	defer unlock()

	q.m.Lock()
	defer q.m.Unlock()

	return q.push(sid, l)
}

// EnqueueIfPresent adds the letter produced by supply to the sequence
// identified by sid, but only if that sequence already contains at least one
// letter.
func (q *Queue) EnqueueIfPresent(
	ctx context.Context,
	sid string,
	supply func() deadletter.Letter,
) (deadletter.Letter, bool, error) {
	unlock, err := q.mutexes.Lock(ctx, sid)
	if err != nil {
		return deadletter.Letter{}, false, err
	}
	defer unlock()

	q.m.Lock()
	defer q.m.Unlock()

	if s, ok := q.seqs[sid]; !ok || len(s.letters) == 0 {
		return deadletter.Letter{}, false, nil
	}

	l, err := q.push(sid, supply())
	if err != nil {
		return deadletter.Letter{}, false, err
	}

	return l, true, nil
}

// push appends l to the sequence identified by sid, enforcing the capacity
// limits. It assumes both q.m and the sequence's mutex are held.
func (q *Queue) push(
	sid string,
	l deadletter.Letter,
) (deadletter.Letter, error) {
	s, ok := q.seqs[sid]

	if !ok {
		if len(q.seqs) >= q.limits.MaxSequences {
			return deadletter.Letter{}, queue.OverflowError{
				SequenceID:  sid,
				Limit:       q.limits.MaxSequences,
				NewSequence: true,
			}
		}

		s = &sequence{}
		q.seqs[sid] = s
	} else if len(s.letters) >= q.limits.MaxSequenceSize {
		return deadletter.Letter{}, queue.OverflowError{
			SequenceID: sid,
			Limit:      q.limits.MaxSequenceSize,
		}
	}

	now := q.now()
	l.SequenceID = sid
	l.EnqueuedAt = now
	l.LastTouched = now

	s.letters = append(s.letters, l)

	return l, nil
}

// Evict removes l from its sequence, matching by letter ID.
func (q *Queue) Evict(ctx context.Context, l deadletter.Letter) error {
	if l.ID == "" {
		return queue.InvalidLetterError{
			Reason: "it has no ID",
		}
	}

	unlock, err := q.mutexes.Lock(ctx, l.SequenceID)
	if err != nil {
		return err
	}
	defer unlock()

	q.m.Lock()
	defer q.m.Unlock()

	s, ok := q.seqs[l.SequenceID]
	if !ok {
		return nil
	}

	for i, x := range s.letters {
		if x.ID == l.ID {
			s.letters = append(s.letters[:i], s.letters[i+1:]...)
			break
		}
	}

	if len(s.letters) == 0 {
		delete(q.seqs, l.SequenceID)
	}

	return nil
}

// Requeue replaces the stored letter's cause and diagnostics as prescribed by
// d, updates its last-touched time, and returns the updated letter.
func (q *Queue) Requeue(
	ctx context.Context,
	l deadletter.Letter,
	d deadletter.Decision,
) (deadletter.Letter, error) {
	if l.ID == "" {
		return deadletter.Letter{}, queue.InvalidLetterError{
			Reason: "it has no ID",
		}
	}

	unlock, err := q.mutexes.Lock(ctx, l.SequenceID)
	if err != nil {
		return deadletter.Letter{}, err
	}
	defer unlock()

	q.m.Lock()
	defer q.m.Unlock()

	if s, ok := q.seqs[l.SequenceID]; ok {
		for i, x := range s.letters {
			if x.ID == l.ID {
				if c, ok := d.EnqueueCause(); ok {
					x.Cause = &c
				}

				x = d.WithDiagnostics(x)
				x.LastTouched = q.now()

				s.letters[i] = x

				return x, nil
			}
		}
	}

	return deadletter.Letter{}, queue.UnknownLetterError{
		LetterID: l.ID,
	}
}

// Contains returns true if the sequence identified by sid contains any
// letters.
func (q *Queue) Contains(ctx context.Context, sid string) (bool, error) {
	q.m.Lock()
	defer q.m.Unlock()

	s, ok := q.seqs[sid]

	return ok && len(s.letters) > 0, nil
}

// Head returns the first letter of the sequence identified by sid.
func (q *Queue) Head(
	ctx context.Context,
	sid string,
) (deadletter.Letter, bool, error) {
	q.m.Lock()
	defer q.m.Unlock()

	if s, ok := q.seqs[sid]; ok && len(s.letters) > 0 {
		return s.letters[0], true, nil
	}

	return deadletter.Letter{}, false, nil
}

// LetterSequence returns the letters of the sequence identified by sid, in
// insertion order.
func (q *Queue) LetterSequence(
	ctx context.Context,
	sid string,
) ([]deadletter.Letter, error) {
	q.m.Lock()
	defer q.m.Unlock()

	s, ok := q.seqs[sid]
	if !ok {
		return nil, nil
	}

	letters := make([]deadletter.Letter, len(s.letters))
	copy(letters, s.letters)

	return letters, nil
}

// SequenceIDs returns a snapshot of the IDs of all sequences held by the
// queue, ordered oldest-first by the last-touched time of each sequence's
// head letter.
func (q *Queue) SequenceIDs(ctx context.Context) ([]string, error) {
	q.m.Lock()
	defer q.m.Unlock()

	type head struct {
		sid     string
		touched time.Time
	}

	heads := make([]head, 0, len(q.seqs))

	for sid, s := range q.seqs {
		if len(s.letters) > 0 {
			heads = append(
				heads,
				head{sid, s.letters[0].LastTouched},
			)
		}
	}

	sort.Slice(
		heads,
		func(i, j int) bool {
			if heads[i].touched.Equal(heads[j].touched) {
				return heads[i].sid < heads[j].sid
			}

			return heads[i].touched.Before(heads[j].touched)
		},
	)

	ids := make([]string, len(heads))
	for i, h := range heads {
		ids[i] = h.sid
	}

	return ids, nil
}

// AmountOfSequences returns the number of distinct sequences held by the
// queue.
func (q *Queue) AmountOfSequences(ctx context.Context) (int, error) {
	q.m.Lock()
	defer q.m.Unlock()

	return len(q.seqs), nil
}

// SequenceSize returns the number of letters in the sequence identified by
// sid.
func (q *Queue) SequenceSize(ctx context.Context, sid string) (int, error) {
	q.m.Lock()
	defer q.m.Unlock()

	if s, ok := q.seqs[sid]; ok {
		return len(s.letters), nil
	}

	return 0, nil
}

// IsFull returns true if no further letter can be enqueued on the sequence
// identified by sid.
func (q *Queue) IsFull(ctx context.Context, sid string) (bool, error) {
	q.m.Lock()
	defer q.m.Unlock()

	if s, ok := q.seqs[sid]; ok {
		return len(s.letters) >= q.limits.MaxSequenceSize, nil
	}

	return len(q.seqs) >= q.limits.MaxSequences, nil
}

// Claim acquires an exclusive, releasable hold on the sequence identified by
// sid.
func (q *Queue) Claim(ctx context.Context, sid string) (bool, error) {
	unlock, ok := q.claimMutexes.TryLock(sid)
	if !ok {
		return false, nil
	}

	q.m.Lock()
	defer q.m.Unlock()

	q.claims[sid] = unlock

	return true, nil
}

// Release relinquishes a claim previously acquired via Claim.
func (q *Queue) Release(ctx context.Context, sid string) error {
	q.m.Lock()
	unlock := q.claims[sid]
	delete(q.claims, sid)
	q.m.Unlock()

	if unlock != nil {
		unlock()
	}

	return nil
}

// Clear removes all sequences and letters from the queue, and releases any
// outstanding claims.
func (q *Queue) Clear(ctx context.Context) error {
	q.m.Lock()
	claims := q.claims
	q.seqs = map[string]*sequence{}
	q.claims = map[string]syncx.UnlockFunc{}
	q.m.Unlock()

	for _, unlock := range claims {
		unlock()
	}

	return nil
}
