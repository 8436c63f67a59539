package mlog

import (
	"fmt"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/morgue/deadletter"
)

// LogEnqueue logs a message indicating that a letter has been placed on the
// queue.
func LogEnqueue(
	log logging.Logger,
	l deadletter.Letter,
) {
	logging.LogString(
		log,
		String(
			letterIDs(l),
			[]Icon{
				EnqueueIcon,
				causeIcon(l.Cause),
			},
			letterText(l)...,
		),
	)
}

// LogEvict logs a message indicating that a letter has been removed from the
// queue permanently.
func LogEvict(
	log logging.Logger,
	l deadletter.Letter,
) {
	logging.LogString(
		log,
		String(
			letterIDs(l),
			[]Icon{
				EvictIcon,
				"",
			},
			l.Envelope.PortableName,
			l.Envelope.Description,
		),
	)
}

// LogRequeue logs a message indicating that a letter has been placed back on
// the queue after a failed retry.
func LogRequeue(
	log logging.Logger,
	l deadletter.Letter,
) {
	logging.LogString(
		log,
		String(
			letterIDs(l),
			[]Icon{
				RequeueIcon,
				causeIcon(l.Cause),
			},
			letterText(l)...,
		),
	)
}

// LogIgnore logs a debug message indicating that a letter has been
// deliberately left on the queue untouched.
func LogIgnore(
	log logging.Logger,
	l deadletter.Letter,
) {
	logging.DebugString(
		log,
		String(
			letterIDs(l),
			[]Icon{
				IgnoreIcon,
				"",
			},
			l.Envelope.PortableName,
			l.Envelope.Description,
		),
	)
}

// LogHandlerFailure logs a message indicating that a retry of a letter has
// itself failed.
func LogHandlerFailure(
	log logging.Logger,
	l deadletter.Letter,
	err error,
) {
	logging.LogString(
		log,
		String(
			letterIDs(l),
			[]Icon{
				RequeueIcon,
				ErrorIcon,
			},
			l.Envelope.PortableName,
			err.Error(),
		),
	)
}

func letterIDs(l deadletter.Letter) []IconWithLabel {
	return []IconWithLabel{
		MessageIDIcon.WithID(l.ID),
		SequenceIDIcon.WithLabel(l.SequenceID),
	}
}

func letterText(l deadletter.Letter) []string {
	text := []string{
		l.Envelope.PortableName,
		l.Envelope.Description,
	}

	if l.Cause != nil {
		text = append(
			text,
			fmt.Sprintf("caused by %s", l.Cause),
		)
	}

	return text
}

func causeIcon(c *deadletter.Cause) Icon {
	if c == nil {
		return ""
	}

	return ErrorIcon
}
