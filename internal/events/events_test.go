package events

import (
	"encoding/json"
	"testing"

	"github.com/hirebridge/api/internal/testutil"
)

func TestDispatchRoundTrip(t *testing.T) {
	msg, err := NewDispatch(RawBody{
		Kind: KindMessage,
		Data: json.RawMessage(`{"text":"hi"}`),
	})
	testutil.IsNil(t, err, "new dispatch")

	b, err := msg.Encode()
	testutil.IsNil(t, err, "encode")

	raw, err := Decode(b)
	testutil.IsNil(t, err, "decode")
	testutil.Assert(t, OpcodeDispatch, raw.Op, "opcode")
	testutil.Assert(t, msg.Timestamp, raw.Timestamp, "timestamp")

	d, err := ConvertMessage[DispatchPayload](raw)
	testutil.IsNil(t, err, "convert")
	testutil.Assert(t, KindMessage, d.Data.Type, "kind")
	testutil.Assert(t, `{"text":"hi"}`, string(d.Data.Body), "body is passed through verbatim")
}

func TestRawBodyWithoutData(t *testing.T) {
	msg, err := NewDispatch(RawBody{Kind: "job"})
	testutil.IsNil(t, err, "new dispatch")
	testutil.Assert(t, "null", string(msg.Data.Body), "empty body")
	testutil.Assert(t, Kind("job"), msg.Data.Type, "custom kind")
}

func TestToRaw(t *testing.T) {
	msg := NewMessage(OpcodeHello, HelloPayload{
		HeartbeatInterval: 25000,
		SessionID:         "abc",
	})

	raw, err := msg.ToRaw()
	testutil.IsNil(t, err, "to raw")

	hello, err := ConvertMessage[HelloPayload](raw)
	testutil.IsNil(t, err, "convert")
	testutil.Assert(t, uint32(25000), hello.Data.HeartbeatInterval, "heartbeat interval")
	testutil.Assert(t, "abc", hello.Data.SessionID, "session id")
	testutil.Assert(t, "", hello.Data.Actor, "actor omitted")
}

func TestOpcodeNames(t *testing.T) {
	testutil.Assert(t, "DISPATCH", OpcodeDispatch.String(), "dispatch")
	testutil.Assert(t, "END_OF_STREAM", OpcodeEndOfStream.String(), "end of stream")
	testutil.Assert(t, "UNDOCUMENTED_OPERATION", Opcode(99).String(), "unknown")
	testutil.Assert(t, "Server is restarting", CloseCodeRestart.String(), "close code")
}
