package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/control"
	"github.com/momentics/evserve/internal/concurrency"
)

// common flags shared by the server commands.
type common struct {
	addr      string
	scheduler string
	workers   int
	pin       bool
	timeout   time.Duration
	admin     string
	logLevel  string
}

func (c *common) register(fs *pflag.FlagSet, defaultAddr string) {
	fs.StringVarP(&c.addr, "addr", "a", defaultAddr, "Bind address, HOST:PORT or [HOST]:PORT")
	fs.StringVar(&c.scheduler, "scheduler", "multiplexer", "inline, fanout, pool or multiplexer")
	fs.IntVarP(&c.workers, "workers", "w", 4, "Workers for pool/multiplexer; fanout limit (<0 unbounded)")
	fs.BoolVar(&c.pin, "pin", false, "Pin pool/multiplexer workers to CPUs")
	fs.DurationVar(&c.timeout, "timeout", 100*time.Millisecond, "Per-operation socket timeout")
	fs.StringVar(&c.admin, "admin", "", "Admin listen address for /metrics and /debug (disabled when empty)")
	fs.StringVar(&c.logLevel, "log-level", "info", "debug, info, warn or error")
}

// runtimeDeps are the ambient collaborators every server command wires.
type runtimeDeps struct {
	logger  *slog.Logger
	metrics *control.Metrics
	probes  *control.DebugProbes
	store   *control.ConfigStore
}

func newRuntimeDeps(level string) (*runtimeDeps, error) {
	logger, err := newLogger(level)
	if err != nil {
		return nil, err
	}
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	return &runtimeDeps{
		logger:  logger,
		metrics: control.NewMetrics(),
		probes:  probes,
		store:   control.NewConfigStore(),
	}, nil
}

// buildScheduler returns nil for inline execution.
func (d *runtimeDeps) buildScheduler(kind string, workers int, pin bool) (api.Scheduler, error) {
	opts := []concurrency.Option{
		concurrency.WithObserver(d.metrics),
		concurrency.WithLogger(d.logger),
	}
	if pin {
		opts = append(opts, concurrency.WithCPUAffinity())
	}
	switch kind {
	case "inline":
		return nil, nil
	case "fanout":
		return concurrency.NewFanout(workers, opts...), nil
	case "pool":
		p, err := concurrency.NewFixedPool(workers, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "multiplexer":
		m, err := concurrency.NewMultiplexer(workers, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown scheduler %q", kind)
	}
}

// startAdmin serves the admin router until ctx is done.
func (d *runtimeDeps) startAdmin(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           control.NewAdminRouter(d.metrics, d.probes, d.store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		d.logger.Info("admin listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("admin server failed", "err", err)
		}
	}()
}
