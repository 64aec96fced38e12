package rest

import (
	"fmt"
	"net"
	"time"

	"github.com/fasthttp/router"
	"github.com/hirebridge/api/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type HttpServer struct {
	listener net.Listener
	router   *router.Router
}

func New(gctx global.Context) error {
	var err error

	port := gctx.Config().Http.Ports.REST
	if port == 0 {
		port = 80
	}

	s := HttpServer{}

	s.listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", gctx.Config().Http.Addr, port))
	if err != nil {
		return err
	}

	srv := &fasthttp.Server{
		Handler:            s.Handler(gctx),
		ReadTimeout:        time.Second * 30,
		IdleTimeout:        time.Second * 10,
		MaxRequestBodySize: 1 << 20,
		LogAllErrors:       true,
		CloseOnShutdown:    true,
	}

	zap.S().Infow("rest, listening",
		"addr", s.listener.Addr().String(),
	)

	// Gracefully exit when the global context is canceled
	go func() {
		<-gctx.Done()
		_ = srv.Shutdown()
	}()

	return srv.Serve(s.listener)
}

// Handler builds the route tree and wraps it with request logging and CORS.
func (s *HttpServer) Handler(gctx global.Context) fasthttp.RequestHandler {
	s.router = router.New()

	s.SetupHandlers()
	s.V1(gctx)

	whitelist := map[string]bool{}
	for _, o := range gctx.Config().Http.Cookie.Whitelist {
		whitelist[o] = true
	}

	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		defer func() {
			l := zap.S().With(
				"status", ctx.Response.StatusCode(),
				"duration", time.Since(start)/time.Millisecond,
				"method", string(ctx.Method()),
				"path", string(ctx.Path()),
				"ip", ctx.RemoteIP().String(),
				"origin", string(ctx.Request.Header.Peek("Origin")),
			)

			if err := recover(); err != nil {
				l.Errorw("panic in rest request handler",
					"panic", err,
				)
			} else {
				l.Debugw("rest request")
			}
		}()

		// CORS
		origin := string(ctx.Request.Header.Peek("Origin"))
		if origin != "" && (len(whitelist) == 0 || whitelist[origin]) {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			ctx.Response.Header.Add("Vary", "Origin")
		}

		ctx.Response.Header.Set("X-Node-Name", gctx.Config().K8S.NodeName)
		ctx.Response.Header.Set("X-Pod-Name", gctx.Config().K8S.PodName)

		if ctx.IsOptions() {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		// Routing
		ctx.Response.Header.Set("Content-Type", "application/json") // default to JSON
		s.router.Handler(ctx)
	}
}
