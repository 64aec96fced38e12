package events

import (
	"encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is the envelope of every frame exchanged over a realtime connection.
type Message[D AnyPayload] struct {
	Op        Opcode `json:"op"`
	Timestamp int64  `json:"t"`
	Data      D      `json:"d"`
	Sequence  uint64 `json:"s,omitempty"`
}

func NewMessage[D AnyPayload](op Opcode, data D) Message[D] {
	return Message[D]{
		Op:        op,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

func (e Message[D]) ToRaw() (Message[json.RawMessage], error) {
	if raw, ok := any(e.Data).(json.RawMessage); ok {
		return Message[json.RawMessage]{
			Op:        e.Op,
			Timestamp: e.Timestamp,
			Data:      raw,
			Sequence:  e.Sequence,
		}, nil
	}

	raw, err := codec.Marshal(e.Data)
	if err != nil {
		return Message[json.RawMessage]{}, err
	}

	return Message[json.RawMessage]{
		Op:        e.Op,
		Timestamp: e.Timestamp,
		Data:      raw,
		Sequence:  e.Sequence,
	}, nil
}

// Encode serializes the message into a single text frame.
func (e Message[D]) Encode() ([]byte, error) {
	return codec.Marshal(e)
}

func ConvertMessage[D AnyPayload](c Message[json.RawMessage]) (Message[D], error) {
	var d D
	err := codec.Unmarshal(c.Data, &d)

	return Message[D]{
		Op:        c.Op,
		Timestamp: c.Timestamp,
		Data:      d,
		Sequence:  c.Sequence,
	}, err
}

// Decode parses a frame into a message with an undecoded payload.
func Decode(b []byte) (Message[json.RawMessage], error) {
	var msg Message[json.RawMessage]

	err := codec.Unmarshal(b, &msg)

	return msg, err
}

type Opcode uint8

const (
	// Default ops (0-32)
	OpcodeDispatch    Opcode = 0 // R - Server dispatches data to the client
	OpcodeHello       Opcode = 1 // R - Server greets the client
	OpcodeHeartbeat   Opcode = 2 // R - Keep the connection alive
	OpcodeReconnect   Opcode = 4 // R - Server demands that the client reconnects
	OpcodeAck         Opcode = 5 // R - Acknowledgement of an action
	OpcodeError       Opcode = 6 // R - Extra error context in cases where the closing frame is not enough
	OpcodeEndOfStream Opcode = 7 // R - The connection's data stream is ending
)

func (op Opcode) String() string {
	switch op {
	case OpcodeDispatch:
		return "DISPATCH"
	case OpcodeHello:
		return "HELLO"
	case OpcodeHeartbeat:
		return "HEARTBEAT"
	case OpcodeReconnect:
		return "RECONNECT"
	case OpcodeAck:
		return "ACK"
	case OpcodeError:
		return "ERROR"
	case OpcodeEndOfStream:
		return "END_OF_STREAM"
	default:
		return "UNDOCUMENTED_OPERATION"
	}
}

type CloseCode uint16

const (
	CloseCodeServerError      CloseCode = 4000 // an error occured on the server's end
	CloseCodeUnknownOperation CloseCode = 4001 // the client sent an unexpected opcode
	CloseCodeInvalidPayload   CloseCode = 4002 // the client sent a payload that couldn't be decoded
	CloseCodeAuthFailure      CloseCode = 4003 // the client presented a credential that could not be verified
	CloseCodeRestart          CloseCode = 4006 // the server is restarting and the client should reconnect
	CloseCodeTimeout          CloseCode = 4008 // the client was idle for too long
)

func (c CloseCode) String() string {
	switch c {
	case CloseCodeServerError:
		return "Internal Server Error"
	case CloseCodeUnknownOperation:
		return "Unknown Operation"
	case CloseCodeInvalidPayload:
		return "Invalid Payload"
	case CloseCodeAuthFailure:
		return "Authentication Failed"
	case CloseCodeRestart:
		return "Server is restarting"
	case CloseCodeTimeout:
		return "Timeout"
	default:
		return "Undocumented Closure"
	}
}
