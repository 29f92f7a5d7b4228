package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/momentics/evserve/api"
	"github.com/momentics/evserve/server"
)

func echoCmd() *cobra.Command {
	var (
		c      common
		buflen int
	)

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Echo UDP datagrams back to their sender",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEcho(&c, buflen)
		},
	}

	c.register(cmd.Flags(), ":7000")
	cmd.Flags().IntVar(&buflen, "buflen", 65536, "Receive buffer length")

	return cmd
}

// echoHandler replies with the datagram payload in a single step.
type echoHandler struct {
	ev api.DatagramEvent
}

func newEchoHandler(ev api.Event) (api.Handler, error) {
	de, ok := ev.(api.DatagramEvent)
	if !ok {
		return nil, fmt.Errorf("echo: unexpected %s event", ev.Kind())
	}
	return &echoHandler{ev: de}, nil
}

func (h *echoHandler) Event() api.Event { return h.ev }

func (h *echoHandler) Step() error {
	srv, ok := h.ev.Origin().(*server.Server)
	if !ok {
		return api.ErrExhausted
	}
	if _, err := srv.WriteTo(h.ev.Payload, h.ev.Remote); err != nil {
		return err
	}
	return api.ErrExhausted
}

func runEcho(c *common, buflen int) error {
	deps, err := newRuntimeDeps(c.logLevel)
	if err != nil {
		return err
	}
	addr, err := server.ParseAddress(c.addr)
	if err != nil {
		return err
	}
	cfg := server.UDPConfig()
	cfg.Address = addr
	cfg.Timeout = c.timeout
	cfg.BufLen = buflen
	cfg.OperationArgs = []any{buflen}

	sched, err := deps.buildScheduler(c.scheduler, c.workers, c.pin)
	if err != nil {
		return err
	}
	opts := []server.Option{
		server.WithHandlerFactory(newEchoHandler),
		server.WithLogger(deps.logger),
		server.WithMetrics(deps.metrics),
		server.WithConfigStore(deps.store),
		server.WithDebugProbes(deps.probes),
	}
	if sched != nil {
		opts = append(opts, server.WithScheduler(sched))
	}
	srv, err := server.NewUDPServer(cfg, opts...)
	if err != nil {
		if sched != nil {
			sched.Close()
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	deps.startAdmin(ctx, c.admin)
	return srv.Serve(ctx)
}
