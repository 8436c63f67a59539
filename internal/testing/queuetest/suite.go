// Package queuetest provides a behavioral test suite for implementations of
// the queue.Queue interface.
package queuetest

import (
	"context"
	"errors"
	"fmt"
	"time"

	dogmafixtures "github.com/dogmatiq/dogma/fixtures"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/fixtures"
	"github.com/dogmatiq/morgue/queue"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// In is a container for values that are provided to the implementation-specific
// "before" function by the test-suite.
type In struct {
	// Limits is the set of capacity bounds that the queue under test must be
	// constructed with.
	Limits queue.Limits
}

// Out is a container for values that are provided by the
// implementation-specific "before" function to the test-suite.
type Out struct {
	// Queue is the queue to be tested.
	Queue queue.Queue

	// TestTimeout is the maximum duration allowed for each test.
	TestTimeout time.Duration

	// TimeTolerance is the maximum difference allowed between a time stored
	// via the queue and the same time when it is loaded again. Backends that
	// store times at reduced precision use this to loosen the comparisons.
	TimeTolerance time.Duration
}

const (
	// DefaultTestTimeout is the default test timeout.
	DefaultTestTimeout = 10 * time.Second

	// DefaultTimeTolerance is the default storage time tolerance.
	DefaultTimeTolerance = 100 * time.Millisecond
)

// Declare declares generic behavioral tests for a specific queue
// implementation.
func Declare(
	before func(context.Context, In) Out,
	after func(),
) {
	var (
		ctx    context.Context
		cancel func()
		in     In
		out    Out

		letter0 deadletter.Letter
		letter1 deadletter.Letter
	)

	ginkgo.BeforeEach(func() {
		setupCtx, cancelSetup := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSetup()

		in = In{
			Limits: queue.Limits{
				MaxSequences:    queue.MinimumCapacity,
				MaxSequenceSize: queue.MinimumCapacity,
			},
		}

		out = before(setupCtx, in)

		letter0 = fixtures.NewLetter(
			"",
			"<sequence>",
			dogmafixtures.MessageA1,
			errors.New("<failure-0>"),
		)
		letter0.Diagnostics = deadletter.Diagnostics{"a": "1"}

		letter1 = fixtures.NewLetter(
			"",
			"<sequence>",
			dogmafixtures.MessageA2,
			errors.New("<failure-1>"),
		)

		if out.TestTimeout <= 0 {
			out.TestTimeout = DefaultTestTimeout
		}

		if out.TimeTolerance <= 0 {
			out.TimeTolerance = DefaultTimeTolerance
		}

		ctx, cancel = context.WithTimeout(context.Background(), out.TestTimeout)
	})

	ginkgo.AfterEach(func() {
		if after != nil {
			after()
		}

		cancel()
	})

	// fillSequences enqueues one letter to each of n distinct sequences.
	fillSequences := func(n int) {
		for i := 0; i < n; i++ {
			_, err := out.Queue.Enqueue(
				ctx,
				fmt.Sprintf("<sequence-%03d>", i),
				fixtures.NewLetter(
					"",
					fmt.Sprintf("<sequence-%03d>", i),
					dogmafixtures.MessageA1,
					errors.New("<failure>"),
				),
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		}
	}

	// fillSequence enqueues n letters to a single sequence.
	fillSequence := func(sid string, n int) {
		for i := 0; i < n; i++ {
			_, err := out.Queue.Enqueue(
				ctx,
				sid,
				fixtures.NewLetter(
					"",
					sid,
					dogmafixtures.MessageA1,
					errors.New("<failure>"),
				),
			)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		}
	}

	ginkgo.Describe("type Queue", func() {
		ginkgo.Describe("func Enqueue()", func() {
			ginkgo.It("returns the letter with its timestamps populated", func() {
				l, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				gomega.Expect(l.ID).To(gomega.Equal(letter0.ID))
				gomega.Expect(l.EnqueuedAt).To(
					gomega.BeTemporally("~", time.Now(), out.TimeTolerance),
				)
				gomega.Expect(l.LastTouched).To(gomega.Equal(l.EnqueuedAt))
			})

			ginkgo.It("appends letters to the sequence in order", func() {
				_, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = out.Queue.Enqueue(ctx, "<sequence>", letter1)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				letters, err := out.Queue.LetterSequence(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(letters).To(gomega.HaveLen(2))
				gomega.Expect(letters[0].ID).To(gomega.Equal(letter0.ID))
				gomega.Expect(letters[1].ID).To(gomega.Equal(letter1.ID))
			})

			ginkgo.It("stores the letter faithfully", func() {
				l, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				h, ok, err := out.Queue.Head(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				expectSameLetter(h, l, out.TimeTolerance)
			})

			ginkgo.When("the queue is at its sequence limit", func() {
				ginkgo.BeforeEach(func() {
					fillSequences(in.Limits.MaxSequences)
				})

				ginkgo.It("returns an OverflowError for a new sequence", func() {
					_, err := out.Queue.Enqueue(ctx, "<one-too-many>", letter0)
					gomega.Expect(err).To(gomega.BeAssignableToTypeOf(queue.OverflowError{}))

					o := err.(queue.OverflowError)
					gomega.Expect(o.NewSequence).To(gomega.BeTrue())
					gomega.Expect(o.Limit).To(gomega.Equal(in.Limits.MaxSequences))
				})

				ginkgo.It("still accepts letters on existing sequences", func() {
					_, err := out.Queue.Enqueue(ctx, "<sequence-000>", letter0)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				ginkgo.It("accepts a new sequence after an existing one is emptied", func() {
					l, ok, err := out.Queue.Head(ctx, "<sequence-000>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(ok).To(gomega.BeTrue())

					err = out.Queue.Evict(ctx, l)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					_, err = out.Queue.Enqueue(ctx, "<one-too-many>", letter0)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				ginkgo.It("reports new sequences as full", func() {
					full, err := out.Queue.IsFull(ctx, "<one-too-many>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(full).To(gomega.BeTrue())

					full, err = out.Queue.IsFull(ctx, "<sequence-000>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(full).To(gomega.BeFalse())
				})
			})

			ginkgo.When("a sequence is at its size limit", func() {
				ginkgo.BeforeEach(func() {
					fillSequence("<sequence>", in.Limits.MaxSequenceSize)
				})

				ginkgo.It("returns an OverflowError", func() {
					_, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
					gomega.Expect(err).To(gomega.BeAssignableToTypeOf(queue.OverflowError{}))

					o := err.(queue.OverflowError)
					gomega.Expect(o.NewSequence).To(gomega.BeFalse())
					gomega.Expect(o.Limit).To(gomega.Equal(in.Limits.MaxSequenceSize))
				})

				ginkgo.It("reports the sequence as full", func() {
					full, err := out.Queue.IsFull(ctx, "<sequence>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(full).To(gomega.BeTrue())
				})
			})
		})

		ginkgo.Describe("func EnqueueIfPresent()", func() {
			ginkgo.It("does not create the sequence", func() {
				invoked := false

				_, ok, err := out.Queue.EnqueueIfPresent(
					ctx,
					"<sequence>",
					func() deadletter.Letter {
						invoked = true
						return letter0
					},
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeFalse())
				gomega.Expect(invoked).To(gomega.BeFalse())

				contains, err := out.Queue.Contains(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(contains).To(gomega.BeFalse())
			})

			ginkgo.It("appends to a sequence that already contains letters", func() {
				_, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				l, ok, err := out.Queue.EnqueueIfPresent(
					ctx,
					"<sequence>",
					func() deadletter.Letter {
						return letter1
					},
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(l.ID).To(gomega.Equal(letter1.ID))
				gomega.Expect(l.EnqueuedAt.IsZero()).To(gomega.BeFalse())

				n, err := out.Queue.SequenceSize(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(n).To(gomega.Equal(2))
			})
		})

		ginkgo.Describe("func Evict()", func() {
			ginkgo.It("removes the letter from its sequence", func() {
				l0, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = out.Queue.Enqueue(ctx, "<sequence>", letter1)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = out.Queue.Evict(ctx, l0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				h, ok, err := out.Queue.Head(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(h.ID).To(gomega.Equal(letter1.ID))
			})

			ginkgo.It("removes the sequence when its last letter is evicted", func() {
				l0, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = out.Queue.Evict(ctx, l0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				contains, err := out.Queue.Contains(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(contains).To(gomega.BeFalse())

				n, err := out.Queue.AmountOfSequences(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(n).To(gomega.BeZero())
			})

			ginkgo.It("does nothing if the letter has already been evicted", func() {
				l0, err := out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = out.Queue.Evict(ctx, l0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = out.Queue.Evict(ctx, l0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			ginkgo.It("does nothing if the letter was never enqueued", func() {
				err := out.Queue.Evict(ctx, letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			ginkgo.It("returns an InvalidLetterError if the letter has no ID", func() {
				err := out.Queue.Evict(
					ctx,
					deadletter.Letter{SequenceID: "<sequence>"},
				)
				gomega.Expect(err).To(gomega.BeAssignableToTypeOf(queue.InvalidLetterError{}))
			})
		})

		ginkgo.Describe("func Requeue()", func() {
			var stored deadletter.Letter

			ginkgo.BeforeEach(func() {
				var err error
				stored, err = out.Queue.Enqueue(ctx, "<sequence>", letter0)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			ginkgo.It("records the cause prescribed by the decision", func() {
				l, err := out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Enqueue(errors.New("<next-failure>")),
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(l.Cause).NotTo(gomega.BeNil())
				gomega.Expect(l.Cause.Message).To(gomega.Equal("<next-failure>"))

				h, ok, err := out.Queue.Head(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(h.Cause).To(gomega.Equal(l.Cause))
			})

			ginkgo.It("retains the existing cause when the decision does not prescribe one", func() {
				l, err := out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Enqueue(nil),
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(l.Cause).To(gomega.Equal(stored.Cause))
			})

			ginkgo.It("advances the last-touched time without changing the enqueued-at time", func() {
				time.Sleep(10 * time.Millisecond)

				l, err := out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Enqueue(nil),
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(l.LastTouched).To(
					gomega.BeTemporally(">", stored.LastTouched),
				)
				gomega.Expect(l.EnqueuedAt).To(
					gomega.BeTemporally("~", stored.EnqueuedAt, out.TimeTolerance),
				)
			})

			ginkgo.It("keeps the letter in its position within the sequence", func() {
				_, err := out.Queue.Enqueue(ctx, "<sequence>", letter1)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Enqueue(errors.New("<next-failure>")),
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				letters, err := out.Queue.LetterSequence(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(letters).To(gomega.HaveLen(2))
				gomega.Expect(letters[0].ID).To(gomega.Equal(stored.ID))
			})

			ginkgo.It("replaces the diagnostics with those prescribed by the decision", func() {
				l, err := out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Requeue(
						nil,
						func(deadletter.Letter) deadletter.Diagnostics {
							return deadletter.Diagnostics{"b": "2"}
						},
					),
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(l.Diagnostics).To(gomega.Equal(
					deadletter.Diagnostics{"b": "2"},
				))
			})

			ginkgo.It("can merge new diagnostics with those already recorded", func() {
				l, err := out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Requeue(
						nil,
						func(l deadletter.Letter) deadletter.Diagnostics {
							return l.Diagnostics.Merge(
								deadletter.Diagnostics{"b": "2"},
							)
						},
					),
				)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(l.Diagnostics).To(gomega.Equal(
					deadletter.Diagnostics{"a": "1", "b": "2"},
				))
			})

			ginkgo.It("returns an UnknownLetterError if the letter has been evicted", func() {
				err := out.Queue.Evict(ctx, stored)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = out.Queue.Requeue(
					ctx,
					stored,
					deadletter.Enqueue(nil),
				)
				gomega.Expect(err).To(gomega.BeAssignableToTypeOf(queue.UnknownLetterError{}))
			})

			ginkgo.It("returns an InvalidLetterError if the letter has no ID", func() {
				_, err := out.Queue.Requeue(
					ctx,
					deadletter.Letter{SequenceID: "<sequence>"},
					deadletter.Enqueue(nil),
				)
				gomega.Expect(err).To(gomega.BeAssignableToTypeOf(queue.InvalidLetterError{}))
			})
		})

		ginkgo.Describe("func Head()", func() {
			ginkgo.It("returns false if the sequence does not exist", func() {
				_, ok, err := out.Queue.Head(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeFalse())
			})
		})

		ginkgo.Describe("func SequenceSize()", func() {
			ginkgo.It("returns zero if the sequence does not exist", func() {
				n, err := out.Queue.SequenceSize(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(n).To(gomega.BeZero())
			})

			ginkgo.It("returns the number of letters in the sequence", func() {
				fillSequence("<sequence>", 3)

				n, err := out.Queue.SequenceSize(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(n).To(gomega.Equal(3))
			})
		})

		ginkgo.Describe("func AmountOfSequences()", func() {
			ginkgo.It("counts distinct sequences, not letters", func() {
				fillSequence("<sequence-a>", 2)
				fillSequence("<sequence-b>", 1)

				n, err := out.Queue.AmountOfSequences(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(n).To(gomega.Equal(2))
			})
		})

		ginkgo.Describe("func SequenceIDs()", func() {
			ginkgo.BeforeEach(func() {
				fillSequence("<sequence-a>", 1)
				time.Sleep(10 * time.Millisecond)
				fillSequence("<sequence-b>", 1)
				time.Sleep(10 * time.Millisecond)
				fillSequence("<sequence-c>", 1)
			})

			ginkgo.It("returns the sequences oldest-first", func() {
				ids, err := out.Queue.SequenceIDs(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ids).To(gomega.Equal(
					[]string{"<sequence-a>", "<sequence-b>", "<sequence-c>"},
				))
			})

			ginkgo.It("moves a sequence to the back when its head is requeued", func() {
				h, ok, err := out.Queue.Head(ctx, "<sequence-a>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				time.Sleep(10 * time.Millisecond)

				_, err = out.Queue.Requeue(ctx, h, deadletter.Enqueue(nil))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				ids, err := out.Queue.SequenceIDs(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ids).To(gomega.Equal(
					[]string{"<sequence-b>", "<sequence-c>", "<sequence-a>"},
				))
			})

			ginkgo.It("does not include sequences that have been emptied", func() {
				h, ok, err := out.Queue.Head(ctx, "<sequence-b>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				err = out.Queue.Evict(ctx, h)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				ids, err := out.Queue.SequenceIDs(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ids).To(gomega.Equal(
					[]string{"<sequence-a>", "<sequence-c>"},
				))
			})
		})

		ginkgo.Describe("func IsFull()", func() {
			ginkgo.It("returns false when the queue has spare capacity", func() {
				full, err := out.Queue.IsFull(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(full).To(gomega.BeFalse())

				fillSequence("<sequence>", 1)

				full, err = out.Queue.IsFull(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(full).To(gomega.BeFalse())
			})
		})

		ginkgo.Describe("func Claim()", func() {
			ginkgo.It("acquires an exclusive claim", func() {
				ok, err := out.Queue.Claim(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				ok, err = out.Queue.Claim(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("does not prevent claims on other sequences", func() {
				ok, err := out.Queue.Claim(ctx, "<sequence-a>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				ok, err = out.Queue.Claim(ctx, "<sequence-b>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())
			})
		})

		ginkgo.Describe("func Release()", func() {
			ginkgo.It("allows the sequence to be claimed again", func() {
				ok, err := out.Queue.Claim(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				err = out.Queue.Release(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				ok, err = out.Queue.Claim(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())
			})

			ginkgo.It("does nothing if the sequence is not claimed", func() {
				err := out.Queue.Release(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})
		})

		ginkgo.Describe("func Clear()", func() {
			ginkgo.It("removes all letters", func() {
				fillSequence("<sequence-a>", 2)
				fillSequence("<sequence-b>", 1)

				err := out.Queue.Clear(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				n, err := out.Queue.AmountOfSequences(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(n).To(gomega.BeZero())

				ids, err := out.Queue.SequenceIDs(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ids).To(gomega.BeEmpty())
			})

			ginkgo.It("releases any outstanding claims", func() {
				ok, err := out.Queue.Claim(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())

				err = out.Queue.Clear(ctx)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				ok, err = out.Queue.Claim(ctx, "<sequence>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(ok).To(gomega.BeTrue())
			})
		})
	})
}

// expectSameLetter asserts that two letters are equivalent.
//
// The message inside the envelope is not compared; persistent queues
// unmarshal it on demand, so it may be nil on one side. Times are compared
// within the given tolerance to allow for backends that store them at reduced
// precision.
func expectSameLetter(actual, expected deadletter.Letter, tolerance time.Duration) {
	gomega.Expect(actual.ID).To(gomega.Equal(expected.ID))
	gomega.Expect(actual.SequenceID).To(gomega.Equal(expected.SequenceID))
	gomega.Expect(actual.Cause).To(gomega.Equal(expected.Cause))
	gomega.Expect(actual.Diagnostics).To(gomega.Equal(expected.Diagnostics))
	gomega.Expect(actual.EnqueuedAt).To(
		gomega.BeTemporally("~", expected.EnqueuedAt, tolerance),
	)
	gomega.Expect(actual.LastTouched).To(
		gomega.BeTemporally("~", expected.LastTouched, tolerance),
	)

	gomega.Expect(actual.Envelope.MessageID).To(gomega.Equal(expected.Envelope.MessageID))
	gomega.Expect(actual.Envelope.Source).To(gomega.Equal(expected.Envelope.Source))
	gomega.Expect(actual.Envelope.CreatedAt).To(
		gomega.BeTemporally("~", expected.Envelope.CreatedAt, tolerance),
	)
	gomega.Expect(actual.Envelope.Description).To(gomega.Equal(expected.Envelope.Description))
	gomega.Expect(actual.Envelope.PortableName).To(gomega.Equal(expected.Envelope.PortableName))
	gomega.Expect(actual.Envelope.Packet).To(gomega.Equal(expected.Envelope.Packet))
}
