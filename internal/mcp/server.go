// Package mcp provides an MCP (Model Context Protocol) server that drives a
// snowball-sampling session over stdio.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/ratelimit"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/simulation"
)

// Server wraps the MCP SDK server and exposes one session as tools.
type Server struct {
	server       *sdk.Server
	session      *session.Controller
	runner       *simulation.Runner
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "snowball")
	Version string // Server version

	// Session is the session the tools drive. Required.
	Session *session.Controller

	// Corpus backs snowball_simulate; nil uses the fallback corpus.
	Corpus *corpus.Corpus

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
}

// NewServer creates a new MCP server with snowball tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Session == nil {
		return nil, errors.New("mcp: a session is required")
	}
	c := cfg.Corpus
	if c == nil {
		c = corpus.Fallback()
	}
	logger := logging.OrDiscard(cfg.Logger)

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		session:      cfg.Session,
		runner:       simulation.NewRunner(c, logger),
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(cfg.AuditDir),
		logger:       logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server running on stdio")
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.Close()
	return err
}

// Close stops autoplay and closes the audit log.
func (s *Server) Close() error {
	s.session.Close()
	return s.auditLogger.Close()
}
