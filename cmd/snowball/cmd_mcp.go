package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/mcp"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/store"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run an MCP server over stdio that drives a sampling session",
		Long: `Start a Model Context Protocol server on stdin/stdout.

The server exposes one sampling session as snowball_* tools (seeds, start,
rounds, autoplay-free runs, detail, exports, graphs and batch simulation)
and the session summary, graph and keywords as resources.

Tool calls are appended to <audit-dir>/audit.jsonl without keyword text.

Example MCP client configuration:
  {"command": "snowball", "args": ["mcp-server"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditDir, _ := cmd.Flags().GetString("audit-dir")
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr.
			logger := newLogger(cmd, cfg)
			trace := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
			defer trace.Close()

			if auditDir == "" && !noAudit {
				if dir, err := store.GlobalSnowballPath(); err == nil {
					auditDir = dir
				}
			}
			if noAudit {
				auditDir = ""
			}

			c := loadCorpus(cmd, cfg, logger)
			ctl, err := session.New(sessionOptions(cfg, c, logger, trace))
			if err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "snowball",
				Version:  version,
				Session:  ctl,
				Corpus:   c,
				AuditDir: auditDir,
				Logger:   logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("audit-dir", "", "Directory for audit.jsonl (default ~/.snowball)")
	cmd.Flags().Bool("no-audit", false, "Disable the tool-call audit log")

	return cmd
}
