package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/visualization"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive demo page on localhost",
		Long: `Start a local HTTP server with the snowball-sampling demo page.

The page has the seed, start, next-round, autoplay, reset and export
controls, the live keyword network and both progress charts. The same
controls are available as a JSON API under /api.

Examples:
  snowball serve
  snowball serve --addr localhost:8080 --no-open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if noOpen {
				cfg.Server.OpenBrowser = false
			}

			logger := newLogger(cmd, cfg)
			trace := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
			defer trace.Close()

			c := loadCorpus(cmd, cfg, logger)
			ctl, err := session.New(sessionOptions(cfg, c, logger, trace))
			if err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			defer ctl.Close()

			srv := visualization.NewServer(ctl, visualization.Options{
				Addr:           cfg.Server.Addr,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         logger,
			})
			return runServer(cmd, cmd.Context(), srv, cfg.Server.OpenBrowser)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, localhost:0 picks a free port)")
	cmd.Flags().Bool("no-open", false, "Do not open the page in a browser")

	return cmd
}

// runServer starts the demo server and blocks until Ctrl-C.
func runServer(cmd *cobra.Command, ctx context.Context, srv *visualization.Server, open bool) error {
	srvCtx, srvCancel := context.WithCancel(ctx)
	defer srvCancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case <-sigCh:
			srvCancel()
		case <-srvCtx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(srvCtx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Addr() != "" {
			break
		}
		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	url := srv.URL()
	if url == "" {
		srvCancel()
		return fmt.Errorf("server did not start within 3 seconds")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Snowball sampling demo at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if open {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	// Block until server exits
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
