package monitoring

import (
	"github.com/hirebridge/api/internal/global"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Handler serves the process metrics and the portal's realtime metrics.
func Handler(gctx global.Context) fasthttp.RequestHandler {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if gctx.Inst().Prometheus != nil {
		gctx.Inst().Prometheus.Register(r)
	}

	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(r, promhttp.HandlerOpts{
		Registry:          r,
		EnableOpenMetrics: true,
	}))
}

func New(gctx global.Context) <-chan struct{} {
	server := fasthttp.Server{
		Handler:          Handler(gctx),
		GetOnly:          true,
		DisableKeepalive: true,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		zap.S().Infow("Monitoring enabled",
			"bind", gctx.Config().Monitoring.Bind,
		)

		if err := server.ListenAndServe(gctx.Config().Monitoring.Bind); err != nil {
			zap.S().Fatalw("failed to start monitoring bind",
				"error", err,
			)
		}
	}()

	go func() {
		<-gctx.Done()

		_ = server.Shutdown()
	}()

	return done
}
