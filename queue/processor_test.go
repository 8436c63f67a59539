package queue_test

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/dogmatiq/dogma/fixtures"
	"github.com/dogmatiq/linger/backoff"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/fixtures"
	"github.com/dogmatiq/morgue/memoryqueue"
	. "github.com/dogmatiq/morgue/queue"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Processor", func() {
	var (
		ctx       context.Context
		cancel    func()
		mq        *memoryqueue.Queue
		handler   *fixtures.HandlerStub
		processor *Processor
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)

		var err error
		mq, err = memoryqueue.New(Limits{})
		Expect(err).ShouldNot(HaveOccurred())

		handler = &fixtures.HandlerStub{}

		processor = &Processor{
			Queue:           mq,
			Handler:         handler,
			BackoffStrategy: backoff.Constant(5 * time.Millisecond),
			Logger:          &logging.BufferedLogger{},
		}
	})

	AfterEach(func() {
		cancel()
	})

	enqueue := func(sid string, err error) deadletter.Letter {
		l, e := mq.Enqueue(
			ctx,
			sid,
			fixtures.NewLetter("", sid, MessageA1, err),
		)
		Expect(e).ShouldNot(HaveOccurred())

		return l
	}

	Describe("func ProcessAny()", func() {
		It("returns false when the queue is empty", func() {
			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("evicts letters that are handled successfully", func() {
			enqueue("<sequence>", errors.New("<failure>"))
			enqueue("<sequence>", nil)

			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			n, err := mq.AmountOfSequences(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("stops processing the sequence when a letter is requeued", func() {
			enqueue("<sequence>", errors.New("<failure>"))
			enqueue("<sequence>", nil)

			handler.HandleDeadLetterFunc = func(
				context.Context,
				deadletter.Letter,
			) (deadletter.Decision, error) {
				return deadletter.Enqueue(errors.New("<next-failure>")), nil
			}

			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			n, err := mq.SequenceSize(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(n).To(Equal(2))

			h, ok, err := mq.Head(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(h.Cause.Message).To(Equal("<next-failure>"))
		})

		It("treats a handler failure as a requeue", func() {
			enqueue("<sequence>", errors.New("<failure>"))

			handler.HandleDeadLetterFunc = func(
				context.Context,
				deadletter.Letter,
			) (deadletter.Decision, error) {
				return nil, errors.New("<handler-error>")
			}

			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			h, ok, err := mq.Head(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(h.Cause.Message).To(Equal("<handler-error>"))
		})

		It("leaves the letter untouched when the decision is to ignore it", func() {
			stored := enqueue("<sequence>", errors.New("<failure>"))

			handler.HandleDeadLetterFunc = func(
				context.Context,
				deadletter.Letter,
			) (deadletter.Decision, error) {
				return deadletter.Ignore(), nil
			}

			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())

			h, ok, err := mq.Head(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(h).To(Equal(stored))
		})

		It("reports progress when letters are evicted before one is ignored", func() {
			enqueue("<sequence>", nil)
			enqueue("<sequence>", errors.New("<failure>"))

			handler.HandleDeadLetterFunc = func(
				_ context.Context,
				l deadletter.Letter,
			) (deadletter.Decision, error) {
				if l.Cause != nil {
					return deadletter.Ignore(), nil
				}

				return nil, nil
			}

			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			n, err := mq.SequenceSize(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("skips sequences that are already claimed", func() {
			enqueue("<sequence>", errors.New("<failure>"))

			ok, err := mq.Claim(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("releases the sequence when processing ends", func() {
			enqueue("<sequence>", errors.New("<failure>"))

			handler.HandleDeadLetterFunc = func(
				context.Context,
				deadletter.Letter,
			) (deadletter.Decision, error) {
				return deadletter.Ignore(), nil
			}

			ok, err := processor.ProcessAny(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = mq.Claim(ctx, "<sequence>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("func Process()", func() {
		It("skips sequences whose head does not match the filter", func() {
			enqueue("<sequence-a>", errors.New("<failure>"))
			time.Sleep(10 * time.Millisecond)
			enqueue("<sequence-b>", errors.New("<failure>"))

			var handled []string
			handler.HandleDeadLetterFunc = func(
				_ context.Context,
				l deadletter.Letter,
			) (deadletter.Decision, error) {
				handled = append(handled, l.SequenceID)
				return nil, nil
			}

			ok, err := processor.Process(
				ctx,
				func(l deadletter.Letter) bool {
					return l.SequenceID == "<sequence-b>"
				},
			)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(handled).To(Equal([]string{"<sequence-b>"}))

			contains, err := mq.Contains(ctx, "<sequence-a>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(contains).To(BeTrue())
		})

		It("applies the filter only to the head of each sequence", func() {
			head := enqueue("<sequence>", errors.New("<failure>"))
			enqueue("<sequence>", nil)

			ok, err := processor.Process(
				ctx,
				func(l deadletter.Letter) bool {
					return l.ID == head.ID
				},
			)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())

			n, err := mq.AmountOfSequences(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})

	Describe("func Run()", func() {
		It("processes letters until the context is canceled", func() {
			enqueue("<sequence>", errors.New("<failure>"))

			runCtx, cancelRun := context.WithCancel(ctx)
			defer cancelRun()

			done := make(chan error, 1)
			go func() {
				done <- processor.Run(runCtx)
			}()

			Eventually(func() (int, error) {
				return mq.AmountOfSequences(ctx)
			}).Should(BeZero())

			cancelRun()
			Expect(<-done).To(Equal(context.Canceled))
		})
	})
})
