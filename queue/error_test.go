package queue_test

import (
	. "github.com/dogmatiq/morgue/queue"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type ConfigurationError", func() {
	Describe("func Error()", func() {
		It("describes the offending setting", func() {
			err := ConfigurationError{
				Setting: "maximum number of sequences",
				Value:   1,
			}

			Expect(err.Error()).To(Equal(
				"the maximum number of sequences is set to 1, but it must be at least 128",
			))
		})
	})
})

var _ = Describe("type OverflowError", func() {
	Describe("func Error()", func() {
		It("describes the sequence limit when a new sequence would be created", func() {
			err := OverflowError{
				SequenceID:  "<sequence>",
				Limit:       256,
				NewSequence: true,
			}

			Expect(err.Error()).To(Equal(
				"unable to enqueue dead letter on sequence '<sequence>', the queue is at its limit of 256 sequences",
			))
		})

		It("describes the size limit otherwise", func() {
			err := OverflowError{
				SequenceID: "<sequence>",
				Limit:      256,
			}

			Expect(err.Error()).To(Equal(
				"unable to enqueue dead letter on sequence '<sequence>', the sequence is at its limit of 256 letters",
			))
		})
	})
})

var _ = Describe("type UnknownLetterError", func() {
	Describe("func Error()", func() {
		It("includes the letter ID", func() {
			err := UnknownLetterError{
				LetterID: "<id>",
			}

			Expect(err.Error()).To(Equal(
				"dead letter with ID '<id>' does not exist",
			))
		})
	})
})

var _ = Describe("type InvalidLetterError", func() {
	Describe("func Error()", func() {
		It("includes the reason", func() {
			err := InvalidLetterError{
				Reason: "it has no ID",
			}

			Expect(err.Error()).To(Equal(
				"dead letter is not valid: it has no ID",
			))
		})
	})
})
