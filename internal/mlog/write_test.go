package mlog_test

import (
	"strings"

	. "github.com/dogmatiq/morgue/internal/mlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var entries = []any{
	Entry(
		"renders a standard log message",
		"= 123  ⋲ 456  ▼ ✖  <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			SequenceIDIcon.WithLabel("456"),
		},
		[]Icon{
			EnqueueIcon,
			ErrorIcon,
		},
		[]string{
			"<foo>",
			"<bar>",
		},
	),
	Entry(
		"renders a hyphen in place of empty labels",
		"= 123  ⋲ -  ▼    <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			SequenceIDIcon.WithLabel(""),
		},
		[]Icon{
			EnqueueIcon,
			"",
		},
		[]string{
			"<foo>",
			"<bar>",
		},
	),
	Entry(
		"pads empty icons to the same width",
		"= 123  ⋲ 456  ▼    <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			SequenceIDIcon.WithLabel("456"),
		},
		[]Icon{
			EnqueueIcon,
			"",
		},
		[]string{
			"<foo>",
			"<bar>",
		},
	),
	Entry(
		"skips empty text",
		"= 123  ⋲ 456  ▼ ✖  <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			SequenceIDIcon.WithLabel("456"),
		},
		[]Icon{
			EnqueueIcon,
			ErrorIcon,
		},
		[]string{
			"<foo>",
			"",
			"<bar>",
		},
	),
}

var _ = DescribeTable(
	"func String()",
	append(
		[]any{
			func(expected string, ids []IconWithLabel, icons []Icon, text []string) {
				Expect(
					String(ids, icons, text...),
				).To(Equal(expected))
			},
		},
		entries...,
	)...,
)

var _ = DescribeTable(
	"func Write()",
	append(
		[]any{
			func(expected string, ids []IconWithLabel, icons []Icon, text []string) {
				w := &strings.Builder{}

				n, err := Write(w, ids, icons, text...)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(n).To(Equal(len(expected)))

				Expect(w.String()).To(Equal(expected))
			},
		},
		entries...,
	)...,
)
