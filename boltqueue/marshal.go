package boltqueue

import (
	"time"

	"github.com/dogmatiq/configkit"
	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/envelope"
	"github.com/dogmatiq/morgue/internal/x/bboltx"
	"github.com/fxamacker/cbor/v2"
)

// record is the storage representation of a dead letter.
//
// The letter's sequence ID is not stored in the record; it is implied by the
// bucket that contains it.
//
// Times are stored as nanoseconds since the Unix epoch. The CBOR time format
// has only second precision by default, which is too coarse to preserve the
// ordering of sequences.
type record struct {
	ID          string
	Cause       *causeRecord
	EnqueuedAt  int64
	LastTouched int64
	Diagnostics map[string]string
	Envelope    envelopeRecord
}

// causeRecord is the storage representation of a deadletter.Cause.
type causeRecord struct {
	Type    string
	Message string
}

// envelopeRecord is the storage representation of an envelope.
//
// The message itself is stored in its serialized form only; it is unmarshaled
// on demand after the letter is loaded.
type envelopeRecord struct {
	MessageID   string
	AppName     string
	AppKey      string
	HandlerName string
	HandlerKey  string
	CreatedAt   int64
	Description string

	PortableName string
	MediaType    string
	Data         []byte
}

// marshalLetter marshals a letter to its storage representation.
func marshalLetter(l deadletter.Letter) []byte {
	rec := record{
		ID:          l.ID,
		EnqueuedAt:  marshalTime(l.EnqueuedAt),
		LastTouched: marshalTime(l.LastTouched),
		Diagnostics: l.Diagnostics,
		Envelope: envelopeRecord{
			MessageID:    l.Envelope.MessageID,
			AppName:      l.Envelope.Source.Application.Name,
			AppKey:       l.Envelope.Source.Application.Key,
			HandlerName:  l.Envelope.Source.Handler.Name,
			HandlerKey:   l.Envelope.Source.Handler.Key,
			CreatedAt:    marshalTime(l.Envelope.CreatedAt),
			Description:  l.Envelope.Description,
			PortableName: l.Envelope.PortableName,
			MediaType:    l.Envelope.Packet.MediaType,
			Data:         l.Envelope.Packet.Data,
		},
	}

	if l.Cause != nil {
		rec.Cause = &causeRecord{
			Type:    l.Cause.Type,
			Message: l.Cause.Message,
		}
	}

	data, err := cbor.Marshal(rec)
	bboltx.Must(err)

	return data
}

// unmarshalLetter unmarshals a letter from its storage representation.
//
// The returned letter's envelope contains the serialized message only; its
// Message field is nil.
func unmarshalLetter(sid string, data []byte) deadletter.Letter {
	var rec record
	bboltx.Must(cbor.Unmarshal(data, &rec))

	l := deadletter.Letter{
		ID:          rec.ID,
		SequenceID:  sid,
		EnqueuedAt:  unmarshalTime(rec.EnqueuedAt),
		LastTouched: unmarshalTime(rec.LastTouched),
		Diagnostics: rec.Diagnostics,
		Envelope: &envelope.Envelope{
			MetaData: envelope.MetaData{
				MessageID: rec.Envelope.MessageID,
				Source: envelope.Source{
					Application: configkit.Identity{
						Name: rec.Envelope.AppName,
						Key:  rec.Envelope.AppKey,
					},
					Handler: configkit.Identity{
						Name: rec.Envelope.HandlerName,
						Key:  rec.Envelope.HandlerKey,
					},
				},
				CreatedAt:   unmarshalTime(rec.Envelope.CreatedAt),
				Description: rec.Envelope.Description,
			},
			PortableName: rec.Envelope.PortableName,
			Packet: marshalkit.Packet{
				MediaType: rec.Envelope.MediaType,
				Data:      rec.Envelope.Data,
			},
		},
	}

	if rec.Cause != nil {
		l.Cause = &deadletter.Cause{
			Type:    rec.Cause.Type,
			Message: rec.Cause.Message,
		}
	}

	return l
}

// marshalTime marshals a time to its storage representation.
func marshalTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

// unmarshalTime unmarshals a time from its storage representation.
func unmarshalTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}

	return time.Unix(0, n)
}
