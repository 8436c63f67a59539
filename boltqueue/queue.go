// Package boltqueue provides an implementation of queue.Queue that persists
// dead letters in a BoltDB database.
package boltqueue

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"
	"time"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/internal/x/bboltx"
	"github.com/dogmatiq/morgue/internal/x/syncx"
	"github.com/dogmatiq/morgue/queue"
	"go.etcd.io/bbolt"
)

// Queue is an implementation of queue.Queue that persists dead letters in a
// BoltDB database.
//
// Letters belonging to different processing groups may share a database; each
// group's letters are stored under a separate top-level bucket.
//
// Claims are held in memory, not in the database. A BoltDB database is only
// accessible to a single process at a time, so claims do not need to survive
// a restart; a crashed process implicitly releases everything it had claimed.
type Queue struct {
	db     *bbolt.DB
	group  []byte
	limits queue.Limits
	now    func() time.Time

	claimMutexes syncx.MutexNamespace

	m      sync.Mutex
	claims map[string]syncx.UnlockFunc
}

var _ queue.Queue = (*Queue)(nil)

// New returns a queue that persists the dead letters of the given processing
// group in db.
//
// Any zero-valued limit is replaced by its default before validation.
func New(
	db *bbolt.DB,
	group string,
	limits queue.Limits,
	options ...Option,
) (*Queue, error) {
	limits = limits.WithDefaults()

	if err := limits.Validate(); err != nil {
		return nil, err
	}

	q := &Queue{
		db:     db,
		group:  []byte(group),
		limits: limits,
		now:    time.Now,
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
) (_ deadletter.Letter, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginWrite(q.db)
	defer tx.Rollback()

	l = q.push(tx, sid, l)

	bboltx.Commit(tx)

	return l, nil
}

// EnqueueIfPresent adds the letter produced by supply to the sequence
// identified by sid, but only if that sequence already contains at least one
// letter.
func (q *Queue) EnqueueIfPresent(
	ctx context.Context,
	sid string,
	supply func() deadletter.Letter,
) (_ deadletter.Letter, _ bool, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginWrite(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(sid))
	if s == nil || isEmpty(s) {
		return deadletter.Letter{}, false, nil
	}

	l := q.push(tx, sid, supply())

	bboltx.Commit(tx)

	return l, true, nil
}

// push appends l to the sequence identified by sid, enforcing the capacity
// limits. It panics with a bboltx.PanicSentinel on failure.
func (q *Queue) push(
	tx *bbolt.Tx,
	sid string,
	l deadletter.Letter,
) deadletter.Letter {
	group := bboltx.CreateBucketIfNotExists(tx, q.group)

	s := group.Bucket([]byte(sid))

	if s == nil {
		if countSequences(group) >= q.limits.MaxSequences {
			bboltx.Must(queue.OverflowError{
				SequenceID:  sid,
				Limit:       q.limits.MaxSequences,
				NewSequence: true,
			})
		}

		s = bboltx.CreateBucketIfNotExists(group, []byte(sid))
	} else if countLetters(s) >= q.limits.MaxSequenceSize {
		bboltx.Must(queue.OverflowError{
			SequenceID: sid,
			Limit:      q.limits.MaxSequenceSize,
		})
	}

	now := q.now()
	l.SequenceID = sid
	l.EnqueuedAt = now
	l.LastTouched = now

	idx, err := s.NextSequence()
	bboltx.Must(err)

	bboltx.Put(s, marshalIndex(idx), marshalLetter(l))

	return l
}

// Evict removes l from its sequence, matching by letter ID.
func (q *Queue) Evict(ctx context.Context, l deadletter.Letter) (err error) {
	if l.ID == "" {
		return queue.InvalidLetterError{
			Reason: "it has no ID",
		}
	}

	defer bboltx.Recover(&err)

	tx := bboltx.BeginWrite(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(l.SequenceID))
	if s == nil {
		return nil
	}

	if k, _, ok := find(s, l.ID); ok {
		bboltx.Delete(s, k)

		if isEmpty(s) {
			group := bboltx.Bucket(tx, q.group)
			bboltx.Must(group.DeleteBucket([]byte(l.SequenceID)))
		}
	}

	bboltx.Commit(tx)

	return nil
}

// Requeue replaces the stored letter's cause and diagnostics as prescribed by
// d, updates its last-touched time, and returns the updated letter.
func (q *Queue) Requeue(
	ctx context.Context,
	l deadletter.Letter,
	d deadletter.Decision,
) (_ deadletter.Letter, err error) {
	if l.ID == "" {
		return deadletter.Letter{}, queue.InvalidLetterError{
			Reason: "it has no ID",
		}
	}

	defer bboltx.Recover(&err)

	tx := bboltx.BeginWrite(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(l.SequenceID))
	if s != nil {
		if k, data, ok := find(s, l.ID); ok {
			x := unmarshalLetter(l.SequenceID, data)

			if c, ok := d.EnqueueCause(); ok {
				x.Cause = &c
			}

			x = d.WithDiagnostics(x)
			x.LastTouched = q.now()

			bboltx.Put(s, k, marshalLetter(x))
			bboltx.Commit(tx)

			return x, nil
		}
	}

	return deadletter.Letter{}, queue.UnknownLetterError{
		LetterID: l.ID,
	}
}

// Contains returns true if the sequence identified by sid contains any
// letters.
func (q *Queue) Contains(ctx context.Context, sid string) (_ bool, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(sid))

	return s != nil && !isEmpty(s), nil
}

// Head returns the first letter of the sequence identified by sid.
func (q *Queue) Head(
	ctx context.Context,
	sid string,
) (_ deadletter.Letter, _ bool, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(sid))
	if s == nil {
		return deadletter.Letter{}, false, nil
	}

	_, data := s.Cursor().First()
	if data == nil {
		return deadletter.Letter{}, false, nil
	}

	return unmarshalLetter(sid, data), true, nil
}

// LetterSequence returns the letters of the sequence identified by sid, in
// insertion order.
func (q *Queue) LetterSequence(
	ctx context.Context,
	sid string,
) (_ []deadletter.Letter, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(sid))
	if s == nil {
		return nil, nil
	}

	var letters []deadletter.Letter

	c := s.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		letters = append(
			letters,
			unmarshalLetter(sid, v),
		)
	}

	return letters, nil
}

// SequenceIDs returns a snapshot of the IDs of all sequences held by the
// queue, ordered oldest-first by the last-touched time of each sequence's
// head letter.
func (q *Queue) SequenceIDs(ctx context.Context) (_ []string, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	group := bboltx.Bucket(tx, q.group)
	if group == nil {
		return nil, nil
	}

	type head struct {
		sid     string
		touched time.Time
	}

	var heads []head

	c := group.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v != nil {
			continue // not a bucket
		}

		sid := string(k)

		_, data := group.Bucket(k).Cursor().First()
		if data == nil {
			continue
		}

		l := unmarshalLetter(sid, data)

		heads = append(
			heads,
			head{sid, l.LastTouched},
		)
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
func (q *Queue) AmountOfSequences(ctx context.Context) (_ int, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	group := bboltx.Bucket(tx, q.group)
	if group == nil {
		return 0, nil
	}

	return countSequences(group), nil
}

// SequenceSize returns the number of letters in the sequence identified by
// sid.
func (q *Queue) SequenceSize(ctx context.Context, sid string) (_ int, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	s := bboltx.Bucket(tx, q.group, []byte(sid))
	if s == nil {
		return 0, nil
	}

	return countLetters(s), nil
}

// IsFull returns true if no further letter can be enqueued on the sequence
// identified by sid.
func (q *Queue) IsFull(ctx context.Context, sid string) (_ bool, err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginRead(q.db)
	defer tx.Rollback()

	group := bboltx.Bucket(tx, q.group)
	if group == nil {
		return false, nil
	}

	if s := group.Bucket([]byte(sid)); s != nil {
		return countLetters(s) >= q.limits.MaxSequenceSize, nil
	}

	return countSequences(group) >= q.limits.MaxSequences, nil
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

// Clear removes all sequences and letters belonging to this queue's
// processing group, and releases any outstanding claims.
func (q *Queue) Clear(ctx context.Context) (err error) {
	defer bboltx.Recover(&err)

	tx := bboltx.BeginWrite(q.db)
	defer tx.Rollback()

	bboltx.DeleteBucket(tx, q.group)
	bboltx.Commit(tx)

	q.m.Lock()
	claims := q.claims
	q.claims = map[string]syncx.UnlockFunc{}
	q.m.Unlock()

	for _, unlock := range claims {
		unlock()
	}

	return nil
}

// find locates the letter with the given ID within a sequence bucket.
func find(s *bbolt.Bucket, id string) ([]byte, []byte, bool) {
	c := s.Cursor()

	for k, v := c.First(); k != nil; k, v = c.Next() {
		if unmarshalLetter("", v).ID == id {
			return k, v, true
		}
	}

	return nil, nil, false
}

// isEmpty returns true if the given sequence bucket contains no letters.
func isEmpty(s *bbolt.Bucket) bool {
	k, _ := s.Cursor().First()
	return k == nil
}

// countLetters returns the number of letters in a sequence bucket.
func countLetters(s *bbolt.Bucket) int {
	n := 0

	c := s.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}

	return n
}

// countSequences returns the number of sequence buckets in a group bucket.
func countSequences(group *bbolt.Bucket) int {
	n := 0

	c := group.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v == nil {
			n++
		}
	}

	return n
}

// marshalIndex marshals a letter's position within its sequence to its
// storage representation. Big-endian keys keep the letters in insertion
// order when traversed by a cursor.
func marshalIndex(idx uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, idx)
	return k
}
