package pprof

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/hirebridge/api/internal/global"
	"go.uber.org/zap"
)

func New(gctx global.Context) <-chan struct{} {
	done := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:              gctx.Config().PProf.Bind,
		Handler:           mux,
		ReadHeaderTimeout: time.Second * 10,
	}

	go func() {
		zap.S().Infow("pprof enabled",
			"bind", srv.Addr,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalw("pprof failed to listen",
				"error", err,
			)
		}
	}()

	go func() {
		defer close(done)
		<-gctx.Done()

		_ = srv.Close()
	}()

	return done
}
