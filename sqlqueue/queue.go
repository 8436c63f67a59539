// Package sqlqueue provides an implementation of queue.Queue that persists
// dead letters in an SQL database.
package sqlqueue

import (
	"context"
	"database/sql"
	"time"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/queue"
)

// Queue is an implementation of queue.Queue that persists dead letters in an
// SQL database.
//
// Claims are persisted alongside the letters, so sequences claimed by one
// process are visible as claimed to every process sharing the database. A
// process that exits without releasing its claims should call ReleaseAll()
// on startup.
type Queue struct {
	db     *sql.DB
	driver Driver
	schema Schema
	group  string
	limits queue.Limits
	now    func() time.Time
}

var _ queue.Queue = (*Queue)(nil)

// New returns a queue that persists the dead letters of the given processing
// group in db.
//
// Any zero-valued limit is replaced by its default before validation. Unless
// the WithDriver() option is used, the SQL driver is chosen automatically
// from the built-in drivers.
func New(
	ctx context.Context,
	db *sql.DB,
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
		schema: DefaultSchema,
		group:  group,
		limits: limits,
		now:    time.Now,
	}

	for _, opt := range options {
		opt(q)
	}

	if q.driver == nil {
		d, err := selectDriver(ctx, db)
		if err != nil {
			return nil, err
		}

		q.driver = d
	}

	return q, nil
}

// Option configures the optional behavior of a queue.
type Option func(*Queue)

// WithDriver returns an option that sets the SQL driver used by the queue,
// instead of deducing it from the database.
func WithDriver(d Driver) Option {
	return func(q *Queue) {
		q.driver = d
	}
}

// WithSchema returns an option that sets the names of the schema elements
// used by the queue.
//
// Any empty name is replaced by its default.
func WithSchema(s Schema) Option {
	return func(q *Queue) {
		q.schema = s.WithDefaults()
	}
}

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
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return deadletter.Letter{}, err
	}
	defer tx.Rollback()

	l, err = q.push(ctx, tx, sid, l)
	if err != nil {
		return deadletter.Letter{}, err
	}

	return l, tx.Commit()
}

// EnqueueIfPresent adds the letter produced by supply to the sequence
// identified by sid, but only if that sequence already contains at least one
// letter.
func (q *Queue) EnqueueIfPresent(
	ctx context.Context,
	sid string,
	supply func() deadletter.Letter,
) (deadletter.Letter, bool, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return deadletter.Letter{}, false, err
	}
	defer tx.Rollback()

	n, err := q.driver.CountLetters(ctx, tx, q.schema.LetterTable, q.group, sid)
	if err != nil {
		return deadletter.Letter{}, false, err
	}

	if n == 0 {
		return deadletter.Letter{}, false, nil
	}

	l, err := q.push(ctx, tx, sid, supply())
	if err != nil {
		return deadletter.Letter{}, false, err
	}

	return l, true, tx.Commit()
}

// push appends l to the sequence identified by sid within an existing
// transaction, enforcing the capacity limits.
func (q *Queue) push(
	ctx context.Context,
	tx *sql.Tx,
	sid string,
	l deadletter.Letter,
) (deadletter.Letter, error) {
	n, err := q.driver.CountLetters(ctx, tx, q.schema.LetterTable, q.group, sid)
	if err != nil {
		return deadletter.Letter{}, err
	}

	if n == 0 {
		total, err := q.driver.CountSequences(ctx, tx, q.schema.LetterTable, q.group)
		if err != nil {
			return deadletter.Letter{}, err
		}

		if total >= q.limits.MaxSequences {
			return deadletter.Letter{}, queue.OverflowError{
				SequenceID:  sid,
				Limit:       q.limits.MaxSequences,
				NewSequence: true,
			}
		}
	} else if n >= q.limits.MaxSequenceSize {
		return deadletter.Letter{}, queue.OverflowError{
			SequenceID: sid,
			Limit:      q.limits.MaxSequenceSize,
		}
	}

	now := q.now()
	l.SequenceID = sid
	l.EnqueuedAt = now
	l.LastTouched = now

	if err := q.driver.InsertLetter(ctx, tx, q.schema.LetterTable, q.group, l); err != nil {
		return deadletter.Letter{}, err
	}

	return l, nil
}

// Evict removes l from its sequence, matching by letter ID.
func (q *Queue) Evict(ctx context.Context, l deadletter.Letter) error {
	if l.ID == "" {
		return queue.InvalidLetterError{
			Reason: "it has no ID",
		}
	}

	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The result is discarded; evicting an absent letter is a no-op.
	if _, err := q.driver.DeleteLetter(ctx, tx, q.schema.LetterTable, q.group, l.ID); err != nil {
		return err
	}

	return tx.Commit()
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

	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return deadletter.Letter{}, err
	}
	defer tx.Rollback()

	x, ok, err := q.driver.SelectLetter(ctx, tx, q.schema.LetterTable, q.group, l.ID)
	if err != nil {
		return deadletter.Letter{}, err
	}

	if ok {
		if c, ok := d.EnqueueCause(); ok {
			x.Cause = &c
		}

		x = d.WithDiagnostics(x)
		x.LastTouched = q.now()

		ok, err = q.driver.UpdateLetter(ctx, tx, q.schema.LetterTable, q.group, x)
		if err != nil {
			return deadletter.Letter{}, err
		}

		if ok {
			return x, tx.Commit()
		}
	}

	return deadletter.Letter{}, queue.UnknownLetterError{
		LetterID: l.ID,
	}
}

// Contains returns true if the sequence identified by sid contains any
// letters.
func (q *Queue) Contains(ctx context.Context, sid string) (bool, error) {
	n, err := q.SequenceSize(ctx, sid)
	return n > 0, err
}

// Head returns the first letter of the sequence identified by sid.
func (q *Queue) Head(
	ctx context.Context,
	sid string,
) (deadletter.Letter, bool, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return deadletter.Letter{}, false, err
	}
	defer tx.Rollback()

	return q.driver.SelectHead(ctx, tx, q.schema.LetterTable, q.group, sid)
}

// LetterSequence returns the letters of the sequence identified by sid, in
// insertion order.
func (q *Queue) LetterSequence(
	ctx context.Context,
	sid string,
) ([]deadletter.Letter, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return q.driver.SelectLetters(ctx, tx, q.schema.LetterTable, q.group, sid)
}

// SequenceIDs returns a snapshot of the IDs of all sequences held by the
// queue, ordered oldest-first by the last-touched time of each sequence's
// head letter.
func (q *Queue) SequenceIDs(ctx context.Context) ([]string, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return q.driver.SelectSequenceIDs(ctx, tx, q.schema.LetterTable, q.group)
}

// AmountOfSequences returns the number of distinct sequences held by the
// queue.
func (q *Queue) AmountOfSequences(ctx context.Context) (int, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	return q.driver.CountSequences(ctx, tx, q.schema.LetterTable, q.group)
}

// SequenceSize returns the number of letters in the sequence identified by
// sid.
func (q *Queue) SequenceSize(ctx context.Context, sid string) (int, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	return q.driver.CountLetters(ctx, tx, q.schema.LetterTable, q.group, sid)
}

// IsFull returns true if no further letter can be enqueued on the sequence
// identified by sid.
func (q *Queue) IsFull(ctx context.Context, sid string) (bool, error) {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	n, err := q.driver.CountLetters(ctx, tx, q.schema.LetterTable, q.group, sid)
	if err != nil {
		return false, err
	}

	if n > 0 {
		return n >= q.limits.MaxSequenceSize, nil
	}

	total, err := q.driver.CountSequences(ctx, tx, q.schema.LetterTable, q.group)
	if err != nil {
		return false, err
	}

	return total >= q.limits.MaxSequences, nil
}

// Claim acquires an exclusive, releasable hold on the sequence identified by
// sid.
func (q *Queue) Claim(ctx context.Context, sid string) (bool, error) {
	return q.driver.AcquireClaim(
		ctx,
		q.db,
		q.schema.ClaimTable,
		q.group,
		sid,
		q.now(),
	)
}

// Release relinquishes a claim previously acquired via Claim.
func (q *Queue) Release(ctx context.Context, sid string) error {
	return q.driver.ReleaseClaim(
		ctx,
		q.db,
		q.schema.ClaimTable,
		q.group,
		sid,
	)
}

// ReleaseAll relinquishes every claim held against this queue's processing
// group.
//
// It is intended to be called on startup, to discard the claims left behind
// by a process that crashed without releasing them.
func (q *Queue) ReleaseAll(ctx context.Context) error {
	return q.driver.ReleaseAllClaims(
		ctx,
		q.db,
		q.schema.ClaimTable,
		q.group,
	)
}

// Clear removes all sequences and letters belonging to this queue's
// processing group, and releases any outstanding claims.
func (q *Queue) Clear(ctx context.Context) error {
	tx, err := q.driver.Begin(ctx, q.db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := q.driver.DeleteLetters(ctx, tx, q.schema.LetterTable, q.group); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return q.ReleaseAll(ctx)
}
