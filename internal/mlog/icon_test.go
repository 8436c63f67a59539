package mlog_test

import (
	. "github.com/dogmatiq/morgue/internal/mlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Icon", func() {
	Describe("func String()", func() {
		It("returns the icon string", func() {
			Expect(
				SequenceIDIcon.String(),
			).To(Equal("⋲"))
		})
	})

	Describe("func WithLabel()", func() {
		It("returns the icon and label", func() {
			Expect(
				SequenceIDIcon.WithLabel("<foo>").String(),
			).To(Equal("⋲ <foo>"))
		})
	})

	Describe("func WithID()", func() {
		It("returns the icon and a shortened ID", func() {
			Expect(
				MessageIDIcon.WithID("47d10297-8192-40c4-aa77-ad63e7d4a8cb").String(),
			).To(Equal("= 47d10297"))
		})
	})
})
