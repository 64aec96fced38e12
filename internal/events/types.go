package events

import (
	"encoding/json"
)

// Kind names the event a dispatch carries.
type Kind string

const (
	KindMessage      Kind = "message"
	KindNotification Kind = "notification"
)

// Body is a document that can be pushed to a user. Each kind has its own Go type,
// so producers cannot hand the gateway a payload of the wrong shape.
type Body interface {
	EventKind() Kind
}

// RawBody carries an already-encoded document for kinds without a dedicated type.
type RawBody struct {
	Kind Kind
	Data json.RawMessage
}

func (r RawBody) EventKind() Kind {
	return r.Kind
}

func (r RawBody) MarshalJSON() ([]byte, error) {
	if len(r.Data) == 0 {
		return []byte("null"), nil
	}

	return r.Data, nil
}

// NewDispatch wraps a document into a DISPATCH message.
func NewDispatch(body Body) (Message[DispatchPayload], error) {
	raw, err := codec.Marshal(body)
	if err != nil {
		return Message[DispatchPayload]{}, err
	}

	return NewMessage(OpcodeDispatch, DispatchPayload{
		Type: body.EventKind(),
		Body: raw,
	}), nil
}
