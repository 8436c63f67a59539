package fixtures

import (
	"context"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/queue"
)

// QueueStub is a test implementation of the queue.Queue interface.
type QueueStub struct {
	queue.Queue

	EnqueueFunc           func(context.Context, string, deadletter.Letter) (deadletter.Letter, error)
	EnqueueIfPresentFunc  func(context.Context, string, func() deadletter.Letter) (deadletter.Letter, bool, error)
	EvictFunc             func(context.Context, deadletter.Letter) error
	RequeueFunc           func(context.Context, deadletter.Letter, deadletter.Decision) (deadletter.Letter, error)
	ContainsFunc          func(context.Context, string) (bool, error)
	HeadFunc              func(context.Context, string) (deadletter.Letter, bool, error)
	LetterSequenceFunc    func(context.Context, string) ([]deadletter.Letter, error)
	SequenceIDsFunc       func(context.Context) ([]string, error)
	AmountOfSequencesFunc func(context.Context) (int, error)
	SequenceSizeFunc      func(context.Context, string) (int, error)
	IsFullFunc            func(context.Context, string) (bool, error)
	ClaimFunc             func(context.Context, string) (bool, error)
	ReleaseFunc           func(context.Context, string) error
	ClearFunc             func(context.Context) error
}

// Enqueue adds a letter to the tail of a sequence.
func (q *QueueStub) Enqueue(
	ctx context.Context,
	sid string,
	l deadletter.Letter,
) (deadletter.Letter, error) {
	if q.EnqueueFunc != nil {
		return q.EnqueueFunc(ctx, sid, l)
	}

	if q.Queue != nil {
		return q.Queue.Enqueue(ctx, sid, l)
	}

	return l, nil
}

// EnqueueIfPresent adds a letter to a sequence only if it is non-empty.
func (q *QueueStub) EnqueueIfPresent(
	ctx context.Context,
	sid string,
	supply func() deadletter.Letter,
) (deadletter.Letter, bool, error) {
	if q.EnqueueIfPresentFunc != nil {
		return q.EnqueueIfPresentFunc(ctx, sid, supply)
	}

	if q.Queue != nil {
		return q.Queue.EnqueueIfPresent(ctx, sid, supply)
	}

	return deadletter.Letter{}, false, nil
}

// Evict removes a letter from its sequence.
func (q *QueueStub) Evict(ctx context.Context, l deadletter.Letter) error {
	if q.EvictFunc != nil {
		return q.EvictFunc(ctx, l)
	}

	if q.Queue != nil {
		return q.Queue.Evict(ctx, l)
	}

	return nil
}

// Requeue updates a stored letter as prescribed by a decision.
func (q *QueueStub) Requeue(
	ctx context.Context,
	l deadletter.Letter,
	d deadletter.Decision,
) (deadletter.Letter, error) {
	if q.RequeueFunc != nil {
		return q.RequeueFunc(ctx, l, d)
	}

	if q.Queue != nil {
		return q.Queue.Requeue(ctx, l, d)
	}

	return l, nil
}

// Contains returns true if a sequence contains any letters.
func (q *QueueStub) Contains(ctx context.Context, sid string) (bool, error) {
	if q.ContainsFunc != nil {
		return q.ContainsFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.Contains(ctx, sid)
	}

	return false, nil
}

// Head returns the first letter of a sequence.
func (q *QueueStub) Head(
	ctx context.Context,
	sid string,
) (deadletter.Letter, bool, error) {
	if q.HeadFunc != nil {
		return q.HeadFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.Head(ctx, sid)
	}

	return deadletter.Letter{}, false, nil
}

// LetterSequence returns the letters of a sequence, in insertion order.
func (q *QueueStub) LetterSequence(
	ctx context.Context,
	sid string,
) ([]deadletter.Letter, error) {
	if q.LetterSequenceFunc != nil {
		return q.LetterSequenceFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.LetterSequence(ctx, sid)
	}

	return nil, nil
}

// SequenceIDs returns the IDs of all sequences held by the queue.
func (q *QueueStub) SequenceIDs(ctx context.Context) ([]string, error) {
	if q.SequenceIDsFunc != nil {
		return q.SequenceIDsFunc(ctx)
	}

	if q.Queue != nil {
		return q.Queue.SequenceIDs(ctx)
	}

	return nil, nil
}

// AmountOfSequences returns the number of distinct sequences held by the
// queue.
func (q *QueueStub) AmountOfSequences(ctx context.Context) (int, error) {
	if q.AmountOfSequencesFunc != nil {
		return q.AmountOfSequencesFunc(ctx)
	}

	if q.Queue != nil {
		return q.Queue.AmountOfSequences(ctx)
	}

	return 0, nil
}

// SequenceSize returns the number of letters in a sequence.
func (q *QueueStub) SequenceSize(ctx context.Context, sid string) (int, error) {
	if q.SequenceSizeFunc != nil {
		return q.SequenceSizeFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.SequenceSize(ctx, sid)
	}

	return 0, nil
}

// IsFull returns true if no further letter can be enqueued on a sequence.
func (q *QueueStub) IsFull(ctx context.Context, sid string) (bool, error) {
	if q.IsFullFunc != nil {
		return q.IsFullFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.IsFull(ctx, sid)
	}

	return false, nil
}

// Claim acquires an exclusive hold on a sequence.
func (q *QueueStub) Claim(ctx context.Context, sid string) (bool, error) {
	if q.ClaimFunc != nil {
		return q.ClaimFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.Claim(ctx, sid)
	}

	return true, nil
}

// Release relinquishes a claim on a sequence.
func (q *QueueStub) Release(ctx context.Context, sid string) error {
	if q.ReleaseFunc != nil {
		return q.ReleaseFunc(ctx, sid)
	}

	if q.Queue != nil {
		return q.Queue.Release(ctx, sid)
	}

	return nil
}

// Clear removes all sequences and letters from the queue.
func (q *QueueStub) Clear(ctx context.Context) error {
	if q.ClearFunc != nil {
		return q.ClearFunc(ctx)
	}

	if q.Queue != nil {
		return q.Queue.Clear(ctx)
	}

	return nil
}
