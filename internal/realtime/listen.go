package realtime

import (
	"fmt"
	"net"
	"time"

	"github.com/fasthttp/router"
	"github.com/hirebridge/api/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// New starts the realtime listener and attaches it to the gateway as its transport.
// The returned channel closes once every connection was ended and the listener stopped.
func New(gctx global.Context) (<-chan struct{}, error) {
	cfg := gctx.Config()

	s := NewServer(Options{
		Presences:         gctx.Inst().Presences,
		Resolver:          gctx.Inst().Identity,
		Prometheus:        gctx.Inst().Prometheus,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		WriteTimeout:      cfg.WriteTimeout(),
		SendBuffer:        cfg.Realtime.SendBuffer,
		RequireToken:      cfg.Realtime.RequireToken,
		AllowedOrigins:    cfg.Http.Cookie.Whitelist,
	})

	port := cfg.Http.Ports.Realtime
	if port == 0 {
		port = 3001
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Http.Addr, port))
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.GET("/v1/ws", s.HandleUpgrade)

	srv := &fasthttp.Server{
		Handler:     r.Handler,
		ReadTimeout: time.Second * 10,
		// connections are hijacked on upgrade, the idle timeout only covers the handshake
		IdleTimeout:     time.Second * 10,
		CloseOnShutdown: true,
	}

	gctx.Inst().Gateway.AttachTransport(s)

	zap.S().Infow("realtime, listening",
		"addr", ln.Addr().String(),
	)

	done := make(chan struct{})

	go func() {
		if err := srv.Serve(ln); err != nil {
			zap.S().Errorw("realtime listener stopped",
				"error", err,
			)
		}
	}()

	go func() {
		defer close(done)
		<-gctx.Done()

		if err := s.Close(); err != nil {
			zap.S().Warnw("realtime, some connections did not close cleanly",
				"error", err,
			)
		}

		_ = srv.Shutdown()
	}()

	return done, nil
}
