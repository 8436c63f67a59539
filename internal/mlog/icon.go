package mlog

import (
	"fmt"
	"io"

	"github.com/dogmatiq/iago/must"
)

const (
	// MessageIDIcon is the icon shown directly before a message ID.
	// It is an "equals sign", indicating that this message "has exactly" the
	// displayed ID.
	MessageIDIcon Icon = "="

	// SequenceIDIcon is the icon shown directly before a sequence ID. It is
	// the mathematical "member of set" symbol, indicating that the letter
	// belongs to the set of letters sharing the displayed sequence ID.
	SequenceIDIcon Icon = "⋲"

	// EnqueueIcon is the icon shown to indicate that a letter is entering the
	// queue. It is a downward pointing arrow, as such letters could be
	// considered as "sinking" into dead-letter storage.
	EnqueueIcon Icon = "▼"

	// EvictIcon is the icon shown to indicate that a letter is leaving the
	// queue for good. It is an upward pointing arrow, the counterpart of
	// EnqueueIcon.
	EvictIcon Icon = "▲"

	// RequeueIcon is the icon shown when a letter is placed back on the queue
	// after a failed retry. It is an open-circle with an arrow, indicating
	// that the letter has "come around again".
	RequeueIcon Icon = "↻"

	// IgnoreIcon is the icon shown when a letter is deliberately left on the
	// queue untouched. It is a hollow version of EnqueueIcon, indicating that
	// the letter remains "unfulfilled".
	IgnoreIcon Icon = "▽"

	// ErrorIcon is the icon shown when logging information about an error.
	// It is a heavy cross, indicating a failure.
	ErrorIcon Icon = "✖"

	// SystemIcon is an icon shown when a log message relates to the internals
	// of the queue itself. It is a sprocket, representing the inner workings
	// of the machine.
	SystemIcon Icon = "⚙"

	// SeparatorIcon is an icon used to separate strings of unrelated text inside a
	// log message. It is a large bullet, intended to have a large visual impact.
	SeparatorIcon Icon = "●"
)

// Icon is a unicode symbol used as an icon in log messages.
type Icon string

func (i Icon) String() string {
	return string(i)
}

// WriteTo writes a string representation of the icon to w.
// If i is the zero-value, a single space is rendered.
func (i Icon) WriteTo(w io.Writer) (int64, error) {
	s := i.String()
	if i == "" {
		s = " "
	}

	n, err := io.WriteString(w, s)
	return int64(n), err
}

// WithLabel return an IconWithLabel containing this icon and the given label.
func (i Icon) WithLabel(f string, v ...interface{}) IconWithLabel {
	return IconWithLabel{
		i,
		formatLabel(fmt.Sprintf(f, v...)),
	}
}

// WithID return an IconWithLabel containing this icon and an ID as its label.
//
// The id is formatted using FormatID().
func (i Icon) WithID(id string) IconWithLabel {
	return i.WithLabel(FormatID(id))
}

// IconWithLabel is a container for an icon and its associated text label.
type IconWithLabel struct {
	Icon  Icon
	Label string
}

func (i IconWithLabel) String() string {
	return i.Icon.String() + " " + i.Label
}

// WriteTo writes a string representation of the icon and its label to w.
func (i IconWithLabel) WriteTo(w io.Writer) (_ int64, err error) {
	defer must.Recover(&err)

	n := must.WriteTo(w, i.Icon)
	n += must.Write(w, space1)
	n += must.WriteString(w, i.Label)

	return int64(n), err
}

// formatLabel formats a label for display.
func formatLabel(label string) string {
	if label == "" {
		return "-"
	}

	return label
}
