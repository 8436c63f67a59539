package queue

import (
	"context"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/linger/backoff"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/internal/mlog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Handler retries dead-lettered messages.
type Handler interface {
	// HandleDeadLetter makes another attempt to handle the message in l.
	//
	// A nil decision with a nil error indicates that the message was handled
	// successfully, in which case the processor evicts the letter. A non-nil
	// decision dictates what happens to the letter instead.
	//
	// A non-nil error indicates that the handler itself failed before it could
	// reach a decision. The letter remains on the queue with err recorded as
	// its cause, as if the handler had returned deadletter.Enqueue(err).
	HandleDeadLetter(ctx context.Context, l deadletter.Letter) (deadletter.Decision, error)
}

// Filter selects which sequences are eligible for processing.
//
// It is called with the head letter of a candidate sequence. If it returns
// false the sequence is skipped as a whole; letters behind an ineligible head
// are never retried out of order.
type Filter func(l deadletter.Letter) bool

// Processor drains a queue by retrying the head letter of each sequence.
type Processor struct {
	// Queue is the queue from which dead letters are processed.
	Queue Queue

	// Handler is the target for retried messages.
	Handler Handler

	// BackoffStrategy is the strategy used to delay processing after a failure
	// or when the queue has no eligible sequences. If it is nil,
	// backoff.DefaultStrategy is used.
	BackoffStrategy backoff.Strategy

	// Logger is the target for log messages about the letters that are
	// processed. If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	// Concurrency is the number of sequences that may be processed in
	// parallel by Run(). If it is non-positive, sequences are processed one
	// at a time.
	Concurrency int
}

// Process retries the letters of the first eligible sequence, starting at its
// head.
//
// It claims the oldest sequence whose head letter matches f, then feeds
// letters to the handler in order until the sequence is exhausted or a
// decision leaves a letter on the queue. A nil filter matches every sequence.
//
// It returns true if at least one letter was evicted or requeued. It returns
// false, without error, if no sequence is eligible, which includes the case
// where every eligible sequence is already claimed by another processor, and
// the case where every handled letter was left untouched by an ignore
// decision.
func (p *Processor) Process(ctx context.Context, f Filter) (bool, error) {
	ids, err := p.Queue.SequenceIDs(ctx)
	if err != nil {
		return false, err
	}

	for _, sid := range ids {
		ok, err := p.processSequence(ctx, sid, f)
		if ok || err != nil {
			return ok, err
		}
	}

	return false, nil
}

// ProcessAny retries the letters of the first sequence, starting at its head.
//
// It is equivalent to calling Process() with a filter that matches every
// sequence.
func (p *Processor) ProcessAny(ctx context.Context) (bool, error) {
	return p.Process(ctx, nil)
}

// Run processes sequences continually until ctx is canceled.
//
// When the queue has no eligible sequences the processor sleeps according to
// its backoff strategy before looking again.
func (p *Processor) Run(ctx context.Context) error {
	n := p.Concurrency
	if n < 1 {
		n = 1
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			return p.run(ctx)
		})
	}

	return g.Wait()
}

// run is the loop executed by each of Run()'s workers.
func (p *Processor) run(ctx context.Context) error {
	counter := backoff.Counter{
		Strategy: p.BackoffStrategy,
	}

	for {
		ok, err := p.ProcessAny(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			logging.LogString(
				p.Logger,
				err.Error(),
			)
		} else if ok {
			counter.Reset()
			continue
		}

		// Either nothing was eligible, or processing failed. Wait before
		// looking at the queue again.
		if err := counter.Sleep(ctx, err); err != nil {
			return err
		}
	}
}

// processSequence claims the sequence identified by sid and retries its
// letters head-first.
//
// It returns true if at least one letter was evicted or requeued. It returns
// false if the sequence is already claimed, no longer exists, its head does
// not match f, or its head was left untouched by an ignore decision.
func (p *Processor) processSequence(
	ctx context.Context,
	sid string,
	f Filter,
) (_ bool, err error) {
	ok, err := p.Queue.Claim(ctx, sid)
	if !ok || err != nil {
		return false, err
	}
	defer func() {
		err = multierr.Append(
			err,
			p.Queue.Release(ctx, sid),
		)
	}()

	acted := false

	for first := true; ; first = false {
		l, ok, err := p.Queue.Head(ctx, sid)
		if !ok || err != nil {
			return acted, err
		}

		// The filter judges the sequence by the head letter that was current
		// when the sequence was claimed. Once processing has begun the
		// remaining letters are fair game regardless of f.
		if first && f != nil && !f(l) {
			return false, nil
		}

		evicted, requeued, err := p.processLetter(ctx, l)
		if err != nil {
			return acted, err
		}

		acted = acted || evicted || requeued

		if !evicted {
			// The letter remains on the queue, blocking those behind it.
			return acted, nil
		}
	}
}

// processLetter feeds l to the handler and applies the resulting decision.
//
// evicted is true if the letter was removed from the queue, unblocking the
// letter behind it. requeued is true if it was placed back on the queue with
// an updated cause; an ignore decision reports neither.
func (p *Processor) processLetter(
	ctx context.Context,
	l deadletter.Letter,
) (evicted, requeued bool, _ error) {
	d, err := p.Handler.HandleDeadLetter(ctx, l)

	if err != nil {
		if ctx.Err() != nil {
			return false, false, ctx.Err()
		}

		mlog.LogHandlerFailure(p.Logger, l, err)
		d = deadletter.Enqueue(err)
	}

	if d == nil {
		if err := p.Queue.Evict(ctx, l); err != nil {
			return false, false, err
		}

		mlog.LogEvict(p.Logger, l)

		return true, false, nil
	}

	if !d.ShouldEnqueue() {
		mlog.LogIgnore(p.Logger, l)
		return false, false, nil
	}

	l, err = p.Queue.Requeue(ctx, l, d)
	if err != nil {
		return false, false, err
	}

	mlog.LogRequeue(p.Logger, l)

	return false, true, nil
}
