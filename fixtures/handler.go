package fixtures

import (
	"context"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/queue"
)

// HandlerStub is a test implementation of the queue.Handler interface.
type HandlerStub struct {
	queue.Handler

	HandleDeadLetterFunc func(context.Context, deadletter.Letter) (deadletter.Decision, error)
}

// HandleDeadLetter makes another attempt to handle the message in l.
func (h *HandlerStub) HandleDeadLetter(
	ctx context.Context,
	l deadletter.Letter,
) (deadletter.Decision, error) {
	if h.HandleDeadLetterFunc != nil {
		return h.HandleDeadLetterFunc(ctx, l)
	}

	if h.Handler != nil {
		return h.Handler.HandleDeadLetter(ctx, l)
	}

	return nil, nil
}
