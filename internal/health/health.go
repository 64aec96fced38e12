package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hirebridge/api/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Check pings every dependency the process needs and reports all failures together.
func Check(ctx context.Context, inst *global.Instances) error {
	var err error

	if inst.Store != nil {
		lCtx, cancel := context.WithTimeout(ctx, time.Second*5)
		if e := inst.Store.Ping(lCtx); e != nil {
			err = multierror.Append(err, fmt.Errorf("store: %w", e))
		}
		cancel()
	}

	if inst.Presences == nil {
		err = multierror.Append(err, fmt.Errorf("presences: not initialized"))
	}

	if inst.Gateway == nil {
		err = multierror.Append(err, fmt.Errorf("gateway: not initialized"))
	}

	return err
}

func Handler(gctx global.Context) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Errorw("panic in health",
					"panic", err,
				)

				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			}
		}()

		if err := Check(context.Background(), gctx.Inst()); err != nil {
			zap.S().Warnw("health check failed",
				"error", err,
			)

			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(err.Error())

			return
		}

		ctx.SetStatusCode(fasthttp.StatusOK)
	}
}

func New(gctx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: Handler(gctx),
	}

	go func() {
		defer close(done)
		zap.S().Infow("Health enabled",
			"bind", gctx.Config().Health.Bind,
		)

		if err := srv.ListenAndServe(gctx.Config().Health.Bind); err != nil {
			zap.S().Fatalw("failed to bind health",
				"error", err,
			)
		}
	}()

	go func() {
		<-gctx.Done()
		_ = srv.Shutdown()
	}()

	return done
}
