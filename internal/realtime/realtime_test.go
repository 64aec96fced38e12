package realtime

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/events"
	"github.com/hirebridge/api/internal/svc/gateway"
	"github.com/hirebridge/api/internal/svc/identity"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/hirebridge/api/internal/testutil"
	"github.com/valyala/fasthttp"
)

const timeout = time.Second * 2

type harness struct {
	srv *Server
	dir presences.Directory
	gw  gateway.Gateway
	ln  net.Listener
}

func newHarness(t *testing.T, opt Options) *harness {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.IsNil(t, err, "listen")

	h := &harness{
		dir: presences.New(),
		ln:  ln,
	}

	opt.Presences = h.dir
	if opt.Resolver == nil {
		opt.Resolver = identity.New(identity.Options{})
	}

	h.srv = NewServer(opt)
	h.gw = gateway.New(gateway.Options{
		Presences: h.dir,
		Transport: h.srv,
	})

	httpSrv := &fasthttp.Server{Handler: h.srv.HandleUpgrade}
	go func() {
		_ = httpSrv.Serve(h.ln)
	}()

	t.Cleanup(func() {
		_ = h.srv.Close()
		_ = h.ln.Close()
	})

	return h
}

func (h *harness) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	conn, _, err := dialer.Dial("ws://"+h.ln.Addr().String()+"/v1/ws?"+query, nil)
	testutil.IsNil(t, err, "dial")

	return conn
}

func read(t *testing.T, conn *websocket.Conn) events.Message[json.RawMessage] {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	_, b, err := conn.ReadMessage()
	testutil.IsNil(t, err, "read frame")

	msg, err := events.Decode(b)
	testutil.IsNil(t, err, "decode frame")

	return msg
}

func readHello(t *testing.T, conn *websocket.Conn) events.HelloPayload {
	t.Helper()

	msg := read(t, conn)
	testutil.Assert(t, events.OpcodeHello, msg.Op, "first frame is hello")

	hello, err := events.ConvertMessage[events.HelloPayload](msg)
	testutil.IsNil(t, err, "hello payload")

	return hello.Data
}

func expectClose(t *testing.T, conn *websocket.Conn, code events.CloseCode) {
	t.Helper()

	msg := read(t, conn)
	testutil.Assert(t, events.OpcodeEndOfStream, msg.Op, "end of stream before close")

	eos, err := events.ConvertMessage[events.EndOfStreamPayload](msg)
	testutil.IsNil(t, err, "end of stream payload")
	testutil.Assert(t, code, eos.Data.Code, "end of stream code")

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, _, err = conn.ReadMessage()
	testutil.Assert(t, true, websocket.IsCloseError(err, int(code)), "close code")
}

func TestHelloRegistersPresence(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	conn := h.dial(t, "userId=cand1")
	defer conn.Close()

	hello := readHello(t, conn)
	testutil.Assert(t, "cand1", hello.Actor, "actor")
	testutil.Assert(t, uint32(60000), hello.HeartbeatInterval, "heartbeat interval")

	connID, ok := h.dir.Lookup("cand1")
	testutil.Assert(t, true, ok, "registered")
	testutil.Assert(t, hello.SessionID, connID, "registered under the session id")
	testutil.Assert(t, 1, h.srv.Len(), "one connection")
}

func TestDeliverExactlyOnceThenOffline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	conn := h.dial(t, "userId=cand1")
	readHello(t, conn)

	msg := model.ChatMessage{SenderID: "emp1", RecipientID: "cand1", Content: "We'd like to interview you"}

	ok, err := h.gw.Deliver(ctx, "cand1", msg)
	testutil.IsNil(t, err, "deliver")
	testutil.Assert(t, true, ok, "delivered")

	frame := read(t, conn)
	testutil.Assert(t, events.OpcodeDispatch, frame.Op, "dispatch")

	dispatch, err := events.ConvertMessage[events.DispatchPayload](frame)
	testutil.IsNil(t, err, "dispatch payload")
	testutil.Assert(t, events.KindMessage, dispatch.Data.Type, "kind")

	var body model.ChatMessage
	testutil.IsNil(t, json.Unmarshal(dispatch.Data.Body, &body), "body")
	testutil.Assert(t, msg.Content, body.Content, "content")

	// nothing else is pending
	_ = conn.SetReadDeadline(time.Now().Add(time.Millisecond * 100))
	_, _, err = conn.ReadMessage()
	testutil.IsNotNil(t, err, "no duplicate frame")

	_ = conn.Close()

	testutil.Eventually(t, timeout, func() bool {
		return !h.dir.Online("cand1") && h.srv.Len() == 0
	}, "presence removed on close")

	ok, err = h.gw.Deliver(ctx, "cand1", msg)
	testutil.IsNil(t, err, "offline deliver")
	testutil.Assert(t, false, ok, "offline")
}

func TestNewestConnectionWins(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	first := h.dial(t, "userId=cand1")
	readHello(t, first)

	second := h.dial(t, "userId=cand1")
	defer second.Close()

	hello := readHello(t, second)

	connID, _ := h.dir.Lookup("cand1")
	testutil.Assert(t, hello.SessionID, connID, "newest connection registered")

	_ = first.Close()

	testutil.Eventually(t, timeout, func() bool {
		return h.srv.Len() == 1
	}, "first connection closed")

	connID, ok := h.dir.Lookup("cand1")
	testutil.Assert(t, true, ok, "still online after stale close")
	testutil.Assert(t, hello.SessionID, connID, "newest connection kept")
}

func TestAnonymousConnection(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	for _, q := range []string{"userId=undefined", "userId=", "userId=null", ""} {
		conn := h.dial(t, q)

		hello := readHello(t, conn)
		testutil.Assert(t, "", hello.Actor, "anonymous actor for "+q)

		_ = conn.Close()
	}

	testutil.Assert(t, 0, h.dir.Len(), "nothing registered")
}

func TestHeartbeat(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Millisecond * 50})

	conn := h.dial(t, "userId=cand1")
	defer conn.Close()

	readHello(t, conn)

	msg := read(t, conn)
	testutil.Assert(t, events.OpcodeHeartbeat, msg.Op, "heartbeat")

	hb, err := events.ConvertMessage[events.HeartbeatPayload](msg)
	testutil.IsNil(t, err, "heartbeat payload")
	testutil.Assert(t, uint64(1), hb.Data.Count, "heartbeat count")

	// client heartbeats keep the connection open
	b, _ := events.NewMessage(events.OpcodeHeartbeat, events.HeartbeatPayload{}).Encode()
	testutil.IsNil(t, conn.WriteMessage(websocket.TextMessage, b), "client heartbeat")

	msg = read(t, conn)
	testutil.Assert(t, events.OpcodeHeartbeat, msg.Op, "still open")
}

func TestUnknownOperation(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	conn := h.dial(t, "userId=cand1")
	defer conn.Close()

	readHello(t, conn)

	b, _ := events.NewMessage(events.OpcodeDispatch, json.RawMessage(`{}`)).Encode()
	testutil.IsNil(t, conn.WriteMessage(websocket.TextMessage, b), "write")

	expectClose(t, conn, events.CloseCodeUnknownOperation)

	testutil.Eventually(t, timeout, func() bool {
		return !h.dir.Online("cand1")
	}, "unregistered")
}

func TestInvalidPayload(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	conn := h.dial(t, "userId=cand1")
	defer conn.Close()

	readHello(t, conn)

	testutil.IsNil(t, conn.WriteMessage(websocket.TextMessage, []byte("hello?")), "write")

	expectClose(t, conn, events.CloseCodeInvalidPayload)
}

func TestRequireToken(t *testing.T) {
	h := newHarness(t, Options{
		HeartbeatInterval: time.Minute,
		RequireToken:      true,
		Resolver:          identity.New(identity.Options{JWTSecret: "secret", RequireToken: true}),
	})

	conn := h.dial(t, "userId=cand1")
	defer conn.Close()

	expectClose(t, conn, events.CloseCodeAuthFailure)

	testutil.Assert(t, 0, h.dir.Len(), "nothing registered")
}

func TestShutdown(t *testing.T) {
	h := newHarness(t, Options{HeartbeatInterval: time.Minute})

	conn := h.dial(t, "userId=cand1")
	defer conn.Close()

	readHello(t, conn)

	done := make(chan error, 1)
	go func() {
		done <- h.srv.Close()
	}()

	expectClose(t, conn, events.CloseCodeRestart)

	_ = testutil.Receive[error](t, done, timeout, "close returns")

	testutil.Assert(t, 0, h.srv.Len(), "no connections")
	testutil.Assert(t, 0, h.dir.Len(), "no presences")

	ok, err := h.gw.Deliver(context.Background(), "cand1", model.Notification{UserID: "cand1"})
	testutil.IsNil(t, err, "deliver after shutdown")
	testutil.Assert(t, false, ok, "nobody to deliver to")
}

func TestSendBuffer(t *testing.T) {
	srv := NewServer(Options{SendBuffer: 1, Presences: presences.New()})

	err := srv.Send("missing", []byte("x"))
	testutil.AssertErr(t, ErrUnknownConnection, err, "unknown connection")

	c := newConnection(srv, "conn-a", nil)

	testutil.IsNil(t, c.enqueue([]byte("one")), "first frame fits")
	testutil.AssertErr(t, ErrSlowConsumer, c.enqueue([]byte("two")), "buffer full")

	c.state.Store(int32(StateClosed))
	testutil.AssertErr(t, ErrConnectionClosed, c.enqueue([]byte("three")), "closed")
}
