package queue_test

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/dogmatiq/dogma/fixtures"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/fixtures"
	"github.com/dogmatiq/morgue/memoryqueue"
	. "github.com/dogmatiq/morgue/queue"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func WithLogging()", func() {
	var (
		ctx    context.Context
		cancel func()
		logger *logging.BufferedLogger
		lq     Queue
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)

		mq, err := memoryqueue.New(Limits{})
		Expect(err).ShouldNot(HaveOccurred())

		logger = &logging.BufferedLogger{}
		lq = WithLogging(mq, logger)
	})

	AfterEach(func() {
		cancel()
	})

	It("logs enqueued letters", func() {
		_, err := lq.Enqueue(
			ctx,
			"<sequence>",
			fixtures.NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
		)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ▼ ✖  MessageA ● {A1} ● caused by *errors.errorString: <failure>",
			},
		))
	})

	It("logs letters appended to an existing sequence", func() {
		_, err := lq.Enqueue(
			ctx,
			"<sequence>",
			fixtures.NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
		)
		Expect(err).ShouldNot(HaveOccurred())

		_, ok, err := lq.EnqueueIfPresent(
			ctx,
			"<sequence>",
			func() deadletter.Letter {
				return fixtures.NewLetter(
					"<next-id>",
					"<sequence>",
					MessageA2,
					nil,
				)
			},
		)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeTrue())

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <next-id>  ⋲ <sequence>  ▼    MessageA ● {A2}",
			},
		))
	})

	It("does not log when the sequence does not exist", func() {
		_, ok, err := lq.EnqueueIfPresent(
			ctx,
			"<sequence>",
			func() deadletter.Letter {
				return fixtures.NewLetter(
					"<id>",
					"<sequence>",
					MessageA1,
					nil,
				)
			},
		)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(logger.Messages()).To(BeEmpty())
	})

	It("logs evicted letters", func() {
		l, err := lq.Enqueue(
			ctx,
			"<sequence>",
			fixtures.NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				nil,
			),
		)
		Expect(err).ShouldNot(HaveOccurred())

		err = lq.Evict(ctx, l)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ▲    MessageA ● {A1}",
			},
		))
	})

	It("logs requeued letters", func() {
		l, err := lq.Enqueue(
			ctx,
			"<sequence>",
			fixtures.NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				nil,
			),
		)
		Expect(err).ShouldNot(HaveOccurred())

		_, err = lq.Requeue(
			ctx,
			l,
			deadletter.Enqueue(errors.New("<next-failure>")),
		)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ↻ ✖  MessageA ● {A1} ● caused by *errors.errorString: <next-failure>",
			},
		))
	})

	It("passes read operations through to the underlying queue", func() {
		_, err := lq.Enqueue(
			ctx,
			"<sequence>",
			fixtures.NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				nil,
			),
		)
		Expect(err).ShouldNot(HaveOccurred())

		n, err := lq.SequenceSize(ctx, "<sequence>")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(Equal(1))
	})
})
