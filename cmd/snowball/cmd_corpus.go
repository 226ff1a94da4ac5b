package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/snowball/internal/config"
	"github.com/nvandessel/snowball/internal/content"
	"github.com/nvandessel/snowball/internal/corpus"
	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/store"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect keyword corpora and manage corpus databases",
		Long: `Inspect keyword corpora and import them into a SQLite corpus database.

A corpus database can be used anywhere a corpus is accepted:
  snowball corpus import sample-keywords.json --db climate.db
  snowball run --corpus climate.db`,
	}

	cmd.AddCommand(
		newCorpusImportCmd(),
		newCorpusShowCmd(),
	)
	return cmd
}

// explicitSource maps a corpus argument onto a source without falling back
// to course content.
func explicitSource(loc string) corpus.Source {
	switch {
	case content.IsURL(loc):
		return content.URLSource{URL: loc}
	case store.IsDatabasePath(loc):
		return store.Source{Path: loc}
	default:
		return corpus.FileSource{Path: filepath.Clean(loc)}
	}
}

func newCorpusImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <corpus.json|url>",
		Short: "Import a JSON corpus into a SQLite corpus database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")

			if dbPath == "" {
				p, err := store.DefaultDBPath()
				if err != nil {
					return err
				}
				dbPath = p
			}
			if !store.IsDatabasePath(dbPath) {
				return fmt.Errorf("database path %s must end in .db, .sqlite or .sqlite3", dbPath)
			}
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}

			src := explicitSource(args[0])
			c, err := src.LoadCorpus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			st, err := store.NewSQLiteCorpusStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open corpus database: %w", err)
			}
			defer st.Close()

			res, err := st.Import(cmd.Context(), c, src.String())
			if err != nil {
				return fmt.Errorf("failed to import corpus: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"database":    dbPath,
					"source":      src.String(),
					"keywords":    res.Keywords,
					"connections": res.Connections,
					"unchanged":   res.Unchanged,
				})
			}
			if res.Unchanged {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already up to date (%d keywords)\n", dbPath, res.Keywords)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d keywords and %d connections into %s\n", res.Keywords, res.Connections, dbPath)
			return nil
		},
	}

	cmd.Flags().String("db", "", "Corpus database path (default ~/.snowball/corpus.db)")
	return cmd
}

type keywordRow struct {
	ID        string  `json:"id"`
	Frequency float64 `json:"frequency"`
	Related   int     `json:"related"`
	Examples  int     `json:"examples"`
}

func newCorpusShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [corpus.json|url|corpus.db]",
		Short: "Show corpus statistics and keywords",
		Long: `Show statistics for a corpus. Without an argument the configured corpus
(course content or --corpus) is shown; a built-in fallback is never used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			listKeywords, _ := cmd.Flags().GetBool("keywords")

			var src corpus.Source
			if len(args) == 1 {
				src = explicitSource(args[0])
			} else {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				src, err = corpusSource(cmd, cfg, logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
			}

			stats, c, err := corpusStats(cmd, src)
			if err != nil {
				return err
			}

			rows := make([]keywordRow, 0, c.Len())
			if listKeywords {
				for _, id := range c.IDs() {
					kw, _ := c.Lookup(id)
					rows = append(rows, keywordRow{ID: id, Frequency: kw.Freq(), Related: len(kw.Related), Examples: len(kw.Examples)})
				}
			}

			if jsonOut {
				out := map[string]interface{}{"stats": stats}
				if listKeywords {
					out["keywords"] = rows
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Corpus: %s\n", stats.Source)
			fmt.Fprintf(w, "  Keywords:      %d\n", stats.Keywords)
			fmt.Fprintf(w, "  Related links: %d\n", stats.Related)
			fmt.Fprintf(w, "  Examples:      %d\n", stats.Examples)
			fmt.Fprintf(w, "  Connections:   %d\n", stats.Connections)
			fmt.Fprintf(w, "  Content hash:  %s\n", shortHash(stats.ContentHash))
			if !stats.ImportedAt.IsZero() {
				fmt.Fprintf(w, "  Imported:      %s\n", stats.ImportedAt.Format(time.RFC3339))
			}
			if listKeywords {
				fmt.Fprintln(w)
				for _, r := range rows {
					fmt.Fprintf(w, "  %-30s freq=%.2f related=%d examples=%d\n", r.ID, r.Frequency, r.Related, r.Examples)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("keywords", false, "List every keyword")
	return cmd
}

// corpusStats loads src and reports its statistics. Databases report their
// stored import metadata; other sources go through an in-memory store.
func corpusStats(cmd *cobra.Command, src corpus.Source) (store.Stats, *corpus.Corpus, error) {
	ctx := cmd.Context()

	var st store.CorpusStore
	if dbSrc, ok := src.(store.Source); ok {
		if _, err := os.Stat(dbSrc.Path); err != nil {
			return store.Stats{}, nil, fmt.Errorf("corpus database: %w", err)
		}
		sqlStore, err := store.NewSQLiteCorpusStore(dbSrc.Path)
		if err != nil {
			return store.Stats{}, nil, fmt.Errorf("failed to open corpus database: %w", err)
		}
		st = sqlStore
	} else {
		c, err := src.LoadCorpus(ctx)
		if err != nil {
			return store.Stats{}, nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		mem := store.NewInMemoryCorpusStore()
		if _, err := mem.Import(ctx, c, src.String()); err != nil {
			return store.Stats{}, nil, err
		}
		st = mem
	}
	defer st.Close()

	c, err := st.Corpus(ctx)
	if err != nil {
		return store.Stats{}, nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return store.Stats{}, nil, fmt.Errorf("failed to read corpus stats: %w", err)
	}
	return stats, c, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	if h == "" {
		return "(none)"
	}
	return h
}

// corpusLabel describes where the configured corpus comes from.
func corpusLabel(cfg *config.SnowballConfig) string {
	if cfg.Content.Corpus != "" {
		return cfg.Content.Corpus
	}
	return strings.TrimRight(cfg.Content.Base, "/") + " (" + cfg.Content.DefaultVersion + ")"
}
