package deadletter_test

import (
	"errors"

	. "github.com/dogmatiq/morgue/deadletter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func Ignore()", func() {
	It("does not enqueue the letter", func() {
		d := Ignore()

		Expect(d.ShouldEnqueue()).To(BeFalse())

		_, ok := d.EnqueueCause()
		Expect(ok).To(BeFalse())
	})

	It("leaves the letter's diagnostics untouched", func() {
		d := Ignore()

		l := Letter{
			Diagnostics: Diagnostics{"a": "1"},
		}

		Expect(d.WithDiagnostics(l)).To(Equal(l))
	})
})

var _ = Describe("func Enqueue()", func() {
	It("enqueues the letter with a cause describing the error", func() {
		d := Enqueue(errors.New("<failure>"))

		Expect(d.ShouldEnqueue()).To(BeTrue())

		c, ok := d.EnqueueCause()
		Expect(ok).To(BeTrue())
		Expect(c.Message).To(Equal("<failure>"))
	})

	It("does not prescribe a cause when the error is nil", func() {
		d := Enqueue(nil)

		Expect(d.ShouldEnqueue()).To(BeTrue())

		_, ok := d.EnqueueCause()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("func Requeue()", func() {
	It("replaces the letter's diagnostics with the result of the diagnose function", func() {
		d := Requeue(
			nil,
			func(l Letter) Diagnostics {
				return Diagnostics{"b": "2"}
			},
		)

		l := Letter{
			Diagnostics: Diagnostics{"a": "1"},
		}

		Expect(d.WithDiagnostics(l).Diagnostics).To(Equal(
			Diagnostics{"b": "2"},
		))
	})

	It("passes the stored letter to the diagnose function", func() {
		l := Letter{
			Diagnostics: Diagnostics{"a": "1"},
		}

		d := Requeue(
			nil,
			func(x Letter) Diagnostics {
				Expect(x).To(Equal(l))
				return x.Diagnostics
			},
		)

		d.WithDiagnostics(l)
	})

	It("leaves the diagnostics untouched when the diagnose function is nil", func() {
		d := Requeue(nil, nil)

		l := Letter{
			Diagnostics: Diagnostics{"a": "1"},
		}

		Expect(d.WithDiagnostics(l)).To(Equal(l))
	})
})
