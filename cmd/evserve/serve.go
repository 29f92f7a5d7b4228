package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/momentics/evserve/httpserver"
	"github.com/momentics/evserve/server"
)

func serveCmd() *cobra.Command {
	var (
		c         common
		root      string
		backlog   int
		noIsolate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve files over HTTP",
		Long: `Serve a directory over a minimal HTTP/1.0 exchange: one request per
connection, GET and HEAD only, other methods answered with 501.

Examples:
  evserve serve --root ./public
  evserve serve --addr [::1]:8080 --scheduler pool --workers 8
  evserve serve --admin 127.0.0.1:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(&c, root, backlog, !noIsolate)
		},
	}

	c.register(cmd.Flags(), ":8000")
	cmd.Flags().StringVarP(&root, "root", "r", ".", "Content root, created if missing")
	cmd.Flags().IntVar(&backlog, "backlog", 100, "Listen backlog")
	cmd.Flags().BoolVar(&noIsolate, "no-isolate", false, "Allow resources to resolve outside the root")

	return cmd
}

func runServe(c *common, root string, backlog int, isolate bool) error {
	deps, err := newRuntimeDeps(c.logLevel)
	if err != nil {
		return err
	}
	addr, err := server.ParseAddress(c.addr)
	if err != nil {
		return err
	}
	cfg := server.TCPConfig()
	cfg.Address = addr
	cfg.Timeout = c.timeout
	cfg.Backlog = backlog

	sched, err := deps.buildScheduler(c.scheduler, c.workers, c.pin)
	if err != nil {
		return err
	}

	srvOpts := []server.Option{
		server.WithLogger(deps.logger),
		server.WithMetrics(deps.metrics),
		server.WithConfigStore(deps.store),
		server.WithDebugProbes(deps.probes),
	}
	if sched != nil {
		srvOpts = append(srvOpts, server.WithScheduler(sched))
	}
	srv, err := httpserver.NewServer(cfg, root,
		httpserver.WithResolver(httpserver.NewResolver(root, isolate)),
		httpserver.WithServerOptions(srvOpts...),
	)
	if err != nil {
		if sched != nil {
			sched.Close()
		}
		return err
	}
	deps.store.SetConfig(map[string]any{
		"http.root":      root,
		"http.isolate":   isolate,
		"http.methods":   httpserver.DefaultRegistry.Methods(),
		"scheduler.kind": c.scheduler,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	deps.startAdmin(ctx, c.admin)
	return srv.Serve(ctx)
}
