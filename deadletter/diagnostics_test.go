package deadletter_test

import (
	. "github.com/dogmatiq/morgue/deadletter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Diagnostics", func() {
	Describe("func Merge()", func() {
		It("combines the entries of both maps", func() {
			d := Diagnostics{"a": "1"}
			x := Diagnostics{"b": "2"}

			Expect(d.Merge(x)).To(Equal(
				Diagnostics{"a": "1", "b": "2"},
			))
		})

		It("takes the value from the argument for duplicate keys", func() {
			d := Diagnostics{"a": "1"}
			x := Diagnostics{"a": "2"}

			Expect(d.Merge(x)).To(Equal(
				Diagnostics{"a": "2"},
			))
		})

		It("does not modify either map", func() {
			d := Diagnostics{"a": "1"}
			x := Diagnostics{"a": "2", "b": "2"}

			d.Merge(x)

			Expect(d).To(Equal(Diagnostics{"a": "1"}))
			Expect(x).To(Equal(Diagnostics{"a": "2", "b": "2"}))
		})

		It("returns a copy when the argument is empty", func() {
			d := Diagnostics{"a": "1"}

			m := d.Merge(nil)
			m["b"] = "2"

			Expect(d).To(Equal(Diagnostics{"a": "1"}))
		})
	})
})
