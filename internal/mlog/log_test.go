package mlog_test

import (
	"errors"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/dogmatiq/dogma/fixtures"
	. "github.com/dogmatiq/morgue/fixtures"
	. "github.com/dogmatiq/morgue/internal/mlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func LogEnqueue()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogEnqueue(
			logger,
			NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ▼ ✖  MessageA ● {A1} ● caused by *errors.errorString: <failure>",
			},
		))
	})

	It("omits the cause when the letter does not have one", func() {
		logger := &logging.BufferedLogger{}

		LogEnqueue(
			logger,
			NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				nil,
			),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ▼    MessageA ● {A1}",
			},
		))
	})
})

var _ = Describe("func LogEvict()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogEvict(
			logger,
			NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ▲    MessageA ● {A1}",
			},
		))
	})
})

var _ = Describe("func LogRequeue()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogRequeue(
			logger,
			NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ↻ ✖  MessageA ● {A1} ● caused by *errors.errorString: <failure>",
			},
		))
	})
})

var _ = Describe("func LogIgnore()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{
			CaptureDebug: true,
		}

		LogIgnore(
			logger,
			NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ▽    MessageA ● {A1}",
				IsDebug: true,
			},
		))
	})
})

var _ = Describe("func LogHandlerFailure()", func() {
	It("logs in the correct format", func() {
		logger := &logging.BufferedLogger{}

		LogHandlerFailure(
			logger,
			NewLetter(
				"<id>",
				"<sequence>",
				MessageA1,
				errors.New("<failure>"),
			),
			errors.New("<error>"),
		)

		Expect(logger.Messages()).To(ContainElement(
			logging.BufferedLogMessage{
				Message: "= <id>  ⋲ <sequence>  ↻ ✖  MessageA ● <error>",
			},
		))
	})
})
