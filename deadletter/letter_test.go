package deadletter_test

import (
	"errors"

	. "github.com/dogmatiq/dogma/fixtures"
	. "github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/fixtures"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func New()", func() {
	It("assigns a unique ID to each letter", func() {
		env := fixtures.NewEnvelope("", MessageA1)

		a := New("<sequence>", env, nil)
		b := New("<sequence>", env, nil)

		_, err := uuid.Parse(a.ID)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(a.ID).NotTo(Equal(b.ID))
	})

	It("records a cause describing the error", func() {
		l := New(
			"<sequence>",
			fixtures.NewEnvelope("", MessageA1),
			errors.New("<failure>"),
		)

		Expect(l.Cause).NotTo(BeNil())
		Expect(l.Cause.Message).To(Equal("<failure>"))
	})

	It("does not record a cause when the error is nil", func() {
		l := New(
			"<sequence>",
			fixtures.NewEnvelope("", MessageA1),
			nil,
		)

		Expect(l.Cause).To(BeNil())
	})

	It("leaves the timestamps zeroed", func() {
		l := New(
			"<sequence>",
			fixtures.NewEnvelope("", MessageA1),
			nil,
		)

		Expect(l.EnqueuedAt.IsZero()).To(BeTrue())
		Expect(l.LastTouched.IsZero()).To(BeTrue())
	})
})

var _ = Describe("type Letter", func() {
	Describe("func WithCause()", func() {
		It("returns a copy with the new cause", func() {
			l := fixtures.NewLetter(
				"",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			)

			x := l.WithCause(errors.New("<next-failure>"))

			Expect(x.Cause.Message).To(Equal("<next-failure>"))
			Expect(l.Cause.Message).To(Equal("<failure>"))
		})

		It("retains the existing cause when the error is nil", func() {
			l := fixtures.NewLetter(
				"",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			)

			x := l.WithCause(nil)

			Expect(x.Cause).To(Equal(l.Cause))
		})
	})

	Describe("func AndDiagnostics()", func() {
		It("returns a copy with the diagnostics merged", func() {
			l := fixtures.NewLetter(
				"",
				"<sequence>",
				MessageA1,
				nil,
			)
			l.Diagnostics = Diagnostics{"a": "1"}

			x := l.AndDiagnostics(Diagnostics{"b": "2"})

			Expect(x.Diagnostics).To(Equal(
				Diagnostics{"a": "1", "b": "2"},
			))
			Expect(l.Diagnostics).To(Equal(
				Diagnostics{"a": "1"},
			))
		})
	})
})
