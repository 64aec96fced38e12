package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/hirebridge/api/internal/events"
	"go.uber.org/zap"
)

type State int32

const (
	StateConnecting State = iota
	StateIdentified
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateIdentified:
		return "identified"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type connection struct {
	srv    *Server
	id     string
	userID string
	conn   *websocket.Conn

	state atomic.Int32
	send  chan []byte
	done  chan struct{}

	writeMx   sync.Mutex
	closeOnce sync.Once

	heartbeatCount uint64
}

func newConnection(srv *Server, id string, ws *websocket.Conn) *connection {
	c := &connection{
		srv:  srv,
		id:   id,
		conn: ws,
		send: make(chan []byte, srv.opt.SendBuffer),
		done: make(chan struct{}),
	}

	c.state.Store(int32(StateConnecting))

	return c
}

func (c *connection) State() State {
	return State(c.state.Load())
}

// hello greets the client. It is written before the connection becomes
// addressable so it is always the first frame.
func (c *connection) hello(actor string) error {
	b, err := events.NewMessage(events.OpcodeHello, events.HelloPayload{
		HeartbeatInterval: uint32(c.srv.opt.HeartbeatInterval.Milliseconds()),
		SessionID:         c.id,
		Actor:             actor,
	}).Encode()
	if err != nil {
		return err
	}

	return c.write(b)
}

// identify registers the connection under userID. Connections without a usable
// identity stay undiscoverable.
func (c *connection) identify(userID string) {
	if !c.srv.opt.Presences.Register(userID, c.id) {
		zap.S().Debugw("realtime connection not registered",
			"connection_id", c.id,
			"user_id", userID,
		)

		return
	}

	c.userID = userID
	c.state.Store(int32(StateIdentified))
	c.srv.presenceChanged()
}

func (c *connection) open() {
	c.state.Store(int32(StateOpen))

	go c.writeLoop()
}

func (c *connection) enqueue(frame []byte) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}

	// a ready send case would otherwise race a closed done channel
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (c *connection) readDeadline() time.Time {
	return time.Now().Add(c.srv.opt.HeartbeatInterval * 3)
}

func (c *connection) readLoop() {
	_ = c.conn.SetReadDeadline(c.readDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(c.readDeadline())
	})

	for {
		t, b, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				zap.S().Debugw("realtime connection read failed",
					"connection_id", c.id,
					"error", err,
				)
			}

			return
		}

		if t != websocket.TextMessage {
			_ = c.terminate(events.CloseCodeInvalidPayload, "")
			return
		}

		msg, err := events.Decode(b)
		if err != nil {
			_ = c.terminate(events.CloseCodeInvalidPayload, "")
			return
		}

		switch msg.Op {
		case events.OpcodeHeartbeat:
			_ = c.conn.SetReadDeadline(c.readDeadline())
		default:
			_ = c.terminate(events.CloseCodeUnknownOperation, "")
			return
		}
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(c.srv.opt.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				zap.S().Debugw("realtime connection write failed",
					"connection_id", c.id,
					"error", err,
				)

				_ = c.conn.Close()

				return
			}
		case <-ticker.C:
			if err := c.heartbeat(); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (c *connection) heartbeat() error {
	c.heartbeatCount++

	b, err := events.NewMessage(events.OpcodeHeartbeat, events.HeartbeatPayload{
		Count: c.heartbeatCount,
	}).Encode()
	if err != nil {
		return err
	}

	if err := c.write(b); err != nil {
		return err
	}

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.srv.opt.WriteTimeout))
}

func (c *connection) write(frame []byte) error {
	c.writeMx.Lock()
	defer c.writeMx.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.srv.opt.WriteTimeout))

	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// terminate tells the client why its stream ends, then closes the socket.
// The read loop observes the closed socket and runs cleanup.
func (c *connection) terminate(code events.CloseCode, message string) error {
	if message == "" {
		message = code.String()
	}

	var err error

	b, encErr := events.NewMessage(events.OpcodeEndOfStream, events.EndOfStreamPayload{
		Code:    code,
		Message: message,
	}).Encode()
	if encErr == nil {
		err = c.write(b)
	}

	if cerr := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(int(code), message),
		time.Now().Add(c.srv.opt.WriteTimeout),
	); err == nil {
		err = cerr
	}

	_ = c.conn.Close()

	return err
}

// cleanup runs once when the connection ends, whatever ended it.
func (c *connection) cleanup() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)

		if c.srv.opt.Presences.Unregister(c.id) {
			c.srv.presenceChanged()
		}

		c.srv.remove(c)

		_ = c.conn.Close()

		zap.S().Debugw("realtime connection closed",
			"connection_id", c.id,
			"user_id", c.userID,
		)
	})
}
