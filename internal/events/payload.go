package events

import (
	"encoding/json"
)

type AnyPayload interface {
	json.RawMessage | HelloPayload | HeartbeatPayload | DispatchPayload |
		ErrorPayload | EndOfStreamPayload
}

type HelloPayload struct {
	HeartbeatInterval uint32 `json:"heartbeat_interval"`
	SessionID         string `json:"session_id"`
	// Actor is the identity the connection was registered under, empty when it is undiscoverable
	Actor string `json:"actor,omitempty"`
}

type HeartbeatPayload struct {
	Count uint64 `json:"count"`
}

type DispatchPayload struct {
	Type Kind `json:"type"`
	// The persisted document, re-emitted verbatim
	Body json.RawMessage `json:"body"`
}

type ErrorPayload struct {
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

type EndOfStreamPayload struct {
	Code    CloseCode `json:"code"`
	Message string    `json:"message"`
}
