package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/log"
	"github.com/malikkrehic/action/internal/pubsub"
	"github.com/malikkrehic/action/internal/transport/httpapi"
	"github.com/malikkrehic/action/internal/transport/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registered actions over HTTP and MCP",
	Long: `Expose every registered action over HTTP and, optionally, as MCP tools on
stdio.

HTTP routes:
  GET  /actions   list the registered actions
  POST /actions   run one: {"action": "echo", "data": {"text": "hi"}}
  GET  /health    liveness

Send an Idempotency-Key header to replay the first successful result of a
repeated request.

Example:
  action serve                      # HTTP on the configured address
  action serve --addr 127.0.0.1:0   # pick a free port
  action serve --mcp --no-http      # MCP tools on stdio only`,
	RunE: runServe,
}

var (
	serveAddr         string
	serveMCP          bool
	serveNoHTTP       bool
	serveLogStdout    bool
	serveFailuresOnly bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Serve the actions as MCP tools on stdio")
	serveCmd.Flags().BoolVar(&serveNoHTTP, "no-http", false, "Do not start the HTTP API")
	serveCmd.Flags().BoolVar(&serveLogStdout, "log-stdout", false, "Tail log entries and invocation outcomes to stdout")
	serveCmd.Flags().BoolVar(&serveFailuresOnly, "failures-only", false, "With --log-stdout, echo only failed invocations")
}

func runServe(cmd *cobra.Command, _ []string) error {
	httpEnabled := cfg.HTTP.Enabled && !serveNoHTTP
	mcpEnabled := cfg.MCP.Enabled || serveMCP
	if !httpEnabled && !mcpEnabled {
		return errors.New("nothing to serve: enable http or mcp")
	}
	if mcpEnabled && serveLogStdout {
		return errors.New("--log-stdout cannot be combined with MCP on stdio")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveLogStdout {
		tailLogs(ctx, cmd.OutOrStdout(), a.events, serveFailuresOnly)
	}
	if path := viper.ConfigFileUsed(); path != "" {
		if err := watchConfig(ctx, path); err != nil {
			log.Warn(log.CatConfig, "config changes will not be picked up", "path", path, "error", err)
		}
	}

	errCh := make(chan error, 2)

	var server *httpapi.Server
	if httpEnabled {
		addr := serveAddr
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		server, err = httpapi.NewServer(httpapi.ServerConfig{
			Addr:              addr,
			Manager:           a.manager,
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		})
		if err != nil {
			_ = a.Close(context.Background())
			return fmt.Errorf("creating API server: %w", err)
		}
		go func() { errCh <- server.Start() }()
		// stdout belongs to MCP when it is enabled
		fmt.Fprintf(cmd.ErrOrStderr(), "action API listening on port %d\n", server.Port())
	}

	if mcpEnabled {
		mcpServer, err := mcp.NewServer(a.manager, mcp.Config{Name: cfg.MCP.Name, Version: version})
		if err != nil {
			_ = a.Close(context.Background())
			return fmt.Errorf("creating MCP server: %w", err)
		}
		go func() { errCh <- mcpServer.Serve(ctx) }()
		log.Info(log.CatMCP, "Serving MCP tools on stdio", "tools", a.manager.Names())
	}

	// Wait for shutdown signal or error
	var serveErr error
	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.ErrOrStderr(), "shutting down...")
	case serveErr = <-errCh:
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Stop(shutdownCtx); err != nil {
			log.ErrorErr(log.CatHTTP, "Error stopping API server", err)
		}
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.ErrorErr(log.CatDB, "Error closing database", err)
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

// tailLogs copies log entries and invocation outcomes to w until ctx ends.
// With failuresOnly, successful invocations are not echoed.
func tailLogs(ctx context.Context, w io.Writer, events *pubsub.Broker[action.Event], failuresOnly bool) {
	if !log.Initialized() {
		// logging is off; route entries to the broker only
		log.InitWriter(io.Discard, log.ParseLevel(cfg.Log.Level))
	}
	logs := log.Subscribe(ctx)

	var mu sync.Mutex
	write := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = io.WriteString(w, line)
	}

	go func() {
		for ev := range logs {
			write(ev.Payload)
		}
	}()

	var types []pubsub.EventType
	if failuresOnly {
		types = append(types, pubsub.FailedEvent)
	}
	go pubsub.Forward(ctx, events, func(ev pubsub.Event[action.Event]) {
		write(formatOutcome(ev) + "\n")
	}, types...)
}

func formatOutcome(ev pubsub.Event[action.Event]) string {
	o := ev.Payload
	if ev.Type == pubsub.FailedEvent {
		return fmt.Sprintf("%s %s failed kind=%s duration=%s id=%s", ev.Timestamp.Format(time.RFC3339), o.Action, o.Kind, o.Duration, o.InvocationID)
	}
	return fmt.Sprintf("%s %s ok duration=%s id=%s", ev.Timestamp.Format(time.RFC3339), o.Action, o.Duration, o.InvocationID)
}
