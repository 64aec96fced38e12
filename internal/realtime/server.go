package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/hirebridge/api/internal/events"
	"github.com/hirebridge/api/internal/instance"
	"github.com/hirebridge/api/internal/svc/identity"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/seventv/common/sync_map"
	"github.com/valyala/fasthttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrUnknownConnection = errors.New("realtime: unknown connection")
	ErrConnectionClosed  = errors.New("realtime: connection closed")
	ErrSlowConsumer      = errors.New("realtime: send buffer full")
)

type Options struct {
	Presences  presences.Directory
	Resolver   identity.Resolver
	Prometheus instance.Prometheus

	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	SendBuffer        int
	RequireToken      bool
	AllowedOrigins    []string
}

// Server owns every open realtime connection of the process and implements the
// gateway's transport.
type Server struct {
	opt      Options
	upgrader websocket.FastHTTPUpgrader

	connections sync_map.Map[string, *connection]

	// mx guards closing against concurrent adds
	mx      sync.Mutex
	closing bool

	wg sync.WaitGroup
}

func NewServer(opt Options) *Server {
	if opt.HeartbeatInterval <= 0 {
		opt.HeartbeatInterval = time.Second * 25
	}

	if opt.WriteTimeout <= 0 {
		opt.WriteTimeout = time.Second * 10
	}

	if opt.SendBuffer <= 0 {
		opt.SendBuffer = 64
	}

	s := &Server{
		opt: opt,
	}

	s.upgrader = websocket.FastHTTPUpgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	return s
}

func (s *Server) checkOrigin(ctx *fasthttp.RequestCtx) bool {
	if len(s.opt.AllowedOrigins) == 0 {
		return true
	}

	origin := string(ctx.Request.Header.Peek("Origin"))
	if origin == "" {
		return true
	}

	for _, o := range s.opt.AllowedOrigins {
		if o == origin {
			return true
		}
	}

	return false
}

// HandleUpgrade upgrades the request to a websocket and runs the connection until it closes.
func (s *Server) HandleUpgrade(ctx *fasthttp.RequestCtx) {
	// the request is recycled once hijacked, copy what the handshake needs
	hs := identity.Handshake{
		UserID: string(ctx.QueryArgs().Peek("userId")),
		Token:  string(ctx.QueryArgs().Peek("token")),
	}

	userID, resolveErr := s.opt.Resolver.Resolve(ctx, hs)

	err := s.upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		c := newConnection(s, uuid.NewString(), ws)

		if !s.add(c) {
			_ = c.terminate(events.CloseCodeRestart, "")
			return
		}

		s.run(c, userID, resolveErr)
	})
	if err != nil {
		zap.S().Debugw("websocket upgrade failed",
			"error", err,
		)
	}
}

func (s *Server) run(c *connection, userID string, resolveErr error) {
	defer c.cleanup()

	if resolveErr != nil {
		if s.opt.RequireToken {
			_ = c.terminate(events.CloseCodeAuthFailure, "")
			return
		}

		zap.S().Debugw("realtime handshake not identified",
			"connection_id", c.id,
			"error", resolveErr,
		)

		userID = ""
	}

	actor := ""
	if presences.ValidUserID(userID) {
		actor = userID
	}

	if err := c.hello(actor); err != nil {
		return
	}

	c.identify(actor)
	c.open()

	c.readLoop()
}

// Send implements the gateway transport.
func (s *Server) Send(connectionID string, frame []byte) error {
	c, ok := s.connections.Load(connectionID)
	if !ok {
		return ErrUnknownConnection
	}

	return c.enqueue(frame)
}

// Len returns the number of open connections.
func (s *Server) Len() int {
	n := 0

	s.connections.Range(func(_ string, _ *connection) bool {
		n++
		return true
	})

	return n
}

func (s *Server) add(c *connection) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.closing {
		return false
	}

	s.connections.Store(c.id, c)
	s.wg.Add(1)

	if s.opt.Prometheus != nil {
		s.opt.Prometheus.ConnectionOpened()
	}

	return true
}

func (s *Server) remove(c *connection) {
	if _, ok := s.connections.LoadAndDelete(c.id); !ok {
		return
	}

	if s.opt.Prometheus != nil {
		s.opt.Prometheus.ConnectionClosed()
	}

	s.wg.Done()
}

func (s *Server) presenceChanged() {
	if s.opt.Prometheus != nil {
		s.opt.Prometheus.PresenceEntries(s.opt.Presences.Len())
	}
}

// Close ends every open connection with a restart notice and waits for their cleanup.
func (s *Server) Close() error {
	s.mx.Lock()
	s.closing = true
	s.mx.Unlock()

	conns := []*connection{}
	s.connections.Range(func(_ string, c *connection) bool {
		conns = append(conns, c)
		return true
	})

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.terminate(events.CloseCodeRestart, ""))
	}

	s.wg.Wait()

	return err
}
