package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bugsnag/panicwrap"
	"github.com/hirebridge/api/internal/configure"
	"github.com/hirebridge/api/internal/data/mutate"
	"github.com/hirebridge/api/internal/data/query"
	"github.com/hirebridge/api/internal/data/store"
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/health"
	"github.com/hirebridge/api/internal/monitoring"
	"github.com/hirebridge/api/internal/pprof"
	"github.com/hirebridge/api/internal/realtime"
	"github.com/hirebridge/api/internal/rest"
	"github.com/hirebridge/api/internal/svc/gateway"
	"github.com/hirebridge/api/internal/svc/identity"
	"github.com/hirebridge/api/internal/svc/limiter"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/hirebridge/api/internal/svc/prometheus"
	"go.uber.org/zap"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

func init() {
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Errorw("panic detected",
			"panic", s,
		)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("Job Portal Realtime API")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		zap.S().Debugf("Go: %s", bi.GoVersion)
	}

	zap.S().Debugf("MaxProcs: %d", runtime.GOMAXPROCS(0))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gctx, cancel := global.WithCancel(global.New(context.Background(), config))

	{
		gctx.Inst().Prometheus = prometheus.New(prometheus.Options{
			Labels: config.Monitoring.Labels.ToPrometheus(),
		})
	}

	{
		if config.Mongo.URI == "" {
			zap.S().Warn("mongo, no uri configured; messages and notifications are kept in memory")

			gctx.Inst().Store = store.NewMemory()
		} else {
			st, err := store.NewMongo(gctx, store.MongoOptions{
				URI:      config.Mongo.URI,
				Username: config.Mongo.Username,
				Password: config.Mongo.Password,
				DB:       config.Mongo.DB,
				Direct:   config.Mongo.Direct,
			})
			if err != nil {
				zap.S().Fatalw("failed to setup mongo handler",
					"error", err,
				)
			}

			gctx.Inst().Store = st
		}
	}

	{
		inst := gctx.Inst()

		inst.Presences = presences.New()
		inst.Limiter = limiter.New()
		inst.Identity = identity.New(identity.Options{
			JWTSecret:    config.Credentials.JWTSecret,
			RequireToken: config.Realtime.RequireToken,
		})
		inst.Gateway = gateway.New(gateway.Options{
			Presences:  inst.Presences,
			Prometheus: inst.Prometheus,
		})
		inst.Query = query.New(inst.Store)
		inst.Mutate = mutate.New(mutate.InstanceOptions{
			Store:   inst.Store,
			Gateway: inst.Gateway,
		})
	}

	wg := sync.WaitGroup{}

	if gctx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gctx)
		}()
	}

	if gctx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gctx)
		}()
	}

	if gctx.Config().PProf.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pprof.New(gctx)
		}()
	}

	{
		rtDone, err := realtime.New(gctx)
		if err != nil {
			zap.S().Fatalw("realtime failed",
				"error", err,
			)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-rtDone
		}()
	}

	done := make(chan struct{})
	go func() {
		<-sig
		cancel()
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")

		wg.Wait()

		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rest.New(gctx); err != nil {
			zap.S().Fatalw("rest failed",
				"error", err,
			)
		}
	}()

	zap.S().Info("running")

	<-done

	zap.S().Info("shutdown")
	os.Exit(0)
}
