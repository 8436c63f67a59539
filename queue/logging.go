package queue

import (
	"context"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/internal/mlog"
)

// WithLogging returns a queue that logs the letter traffic of q to the given
// logger.
//
// Enqueues, evictions and requeues are logged; read operations and claims are
// passed through silently.
func WithLogging(q Queue, logger logging.Logger) Queue {
	return &loggingQueue{q, logger}
}

type loggingQueue struct {
	Queue
	logger logging.Logger
}

func (q *loggingQueue) Enqueue(
	ctx context.Context,
	sid string,
	l deadletter.Letter,
) (deadletter.Letter, error) {
	l, err := q.Queue.Enqueue(ctx, sid, l)
	if err != nil {
		return deadletter.Letter{}, err
	}

	mlog.LogEnqueue(q.logger, l)

	return l, nil
}

func (q *loggingQueue) EnqueueIfPresent(
	ctx context.Context,
	sid string,
	supply func() deadletter.Letter,
) (deadletter.Letter, bool, error) {
	l, ok, err := q.Queue.EnqueueIfPresent(ctx, sid, supply)
	if !ok || err != nil {
		return deadletter.Letter{}, false, err
	}

	mlog.LogEnqueue(q.logger, l)

	return l, true, nil
}

func (q *loggingQueue) Evict(ctx context.Context, l deadletter.Letter) error {
	if err := q.Queue.Evict(ctx, l); err != nil {
		return err
	}

	mlog.LogEvict(q.logger, l)

	return nil
}

func (q *loggingQueue) Requeue(
	ctx context.Context,
	l deadletter.Letter,
	d deadletter.Decision,
) (deadletter.Letter, error) {
	l, err := q.Queue.Requeue(ctx, l, d)
	if err != nil {
		return deadletter.Letter{}, err
	}

	mlog.LogRequeue(q.logger, l)

	return l, nil
}
