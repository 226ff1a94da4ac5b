package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/snowball/internal/config"
	"github.com/nvandessel/snowball/internal/content"
	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/session"
	"github.com/nvandessel/snowball/internal/store"
)

// loadConfig loads the configuration and applies the global flags.
func loadConfig(cmd *cobra.Command) (*config.SnowballConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("content-base"); v != "" {
		cfg.Content.Base = v
	}
	if v, _ := cmd.Flags().GetString("corpus"); v != "" {
		cfg.Content.Corpus = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.SnowballConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// resolver builds the version resolver from the config, falling back to
// versions/config.json under the content base.
func resolver(ctx context.Context, cfg *config.SnowballConfig, logger *slog.Logger) (*content.Resolver, error) {
	if len(cfg.Content.Versions) > 0 {
		return content.NewResolver(cfg.Content.DefaultVersion, cfg.Content.Versions)
	}
	vc, err := content.LoadVersionConfig(ctx, cfg.Content.Base, nil)
	if err != nil {
		logger.Debug("no version config, using configured default", "base", cfg.Content.Base, "error", err)
		return content.NewResolver(cfg.Content.DefaultVersion, []string{cfg.Content.DefaultVersion})
	}
	return content.NewResolverFromConfig(vc)
}

// corpusSource picks where the corpus comes from. An explicit corpus
// location wins; otherwise the corpus is read from the resolved course
// version.
func corpusSource(cmd *cobra.Command, cfg *config.SnowballConfig, logger *slog.Logger) (corpus.Source, error) {
	if loc := cfg.Content.Corpus; loc != "" {
		switch {
		case content.IsURL(loc):
			return content.URLSource{URL: loc}, nil
		case store.IsDatabasePath(loc):
			return store.Source{Path: loc}, nil
		default:
			return corpus.FileSource{Path: filepath.Clean(loc)}, nil
		}
	}

	r, err := resolver(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("resolving course version: %w", err)
	}
	requested, _ := cmd.Flags().GetString("course-version")
	v := r.Resolve(requested)
	if requested != "" && v != requested {
		logger.Warn("unknown course version, using default", "requested", requested, "version", v)
	}
	return content.CorpusSource{
		Loader: content.NewLoader(cfg.Content.Base, v, nil),
		Path:   cfg.Content.CorpusFile,
	}, nil
}

// loadCorpus loads the configured corpus, falling back to the built-in
// corpus on any failure.
func loadCorpus(cmd *cobra.Command, cfg *config.SnowballConfig, logger *slog.Logger) *corpus.Corpus {
	src, err := corpusSource(cmd, cfg, logger)
	if err != nil {
		logger.Warn("no corpus source", "error", err)
		src = nil
	}
	c, _ := corpus.LoadOrFallback(cmd.Context(), src, logger)
	return c
}

// sessionOptions maps the config onto session options.
func sessionOptions(cfg *config.SnowballConfig, c *corpus.Corpus, logger *slog.Logger, trace *logging.TraceLogger) session.Options {
	factor := cfg.Simulation.DiscoveryFactor
	return session.Options{
		Corpus:          c,
		Seeds:           cfg.Simulation.Seeds,
		DiscoveryFactor: &factor,
		RandSeed:        cfg.Simulation.RandSeed,
		AutoplayDelay:   cfg.Simulation.AutoplayDelay,
		Width:           float64(cfg.Canvas.Width),
		Height:          float64(cfg.Canvas.Height),
		Logger:          logger,
		Trace:           trace,
	}
}
