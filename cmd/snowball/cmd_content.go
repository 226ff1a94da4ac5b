package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/snowball/internal/content"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect course content versions",
	}
	cmd.AddCommand(
		newContentVersionsCmd(),
		newContentCheckCmd(),
	)
	return cmd
}

func newContentVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List known course versions and the default",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r, err := resolver(cmd.Context(), cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			requested, _ := cmd.Flags().GetString("course-version")
			active := r.Resolve(requested)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"default":  r.Default(),
					"active":   active,
					"versions": r.Versions(),
				})
			}
			for _, v := range r.Versions() {
				marker := "  "
				if v == active {
					marker = "* "
				}
				suffix := ""
				if v == r.Default() {
					suffix = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s%s\n", marker, v, suffix)
			}
			return nil
		},
	}
}

func newContentCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that a local content directory has every configured version",
		Long: `Check a local content base against versions/config.json: every listed
version needs a content/ directory; a missing demos/ directory is a warning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if content.IsURL(cfg.Content.Base) {
				return fmt.Errorf("content check needs a local directory, got %s", cfg.Content.Base)
			}

			vc, err := content.LoadVersionConfig(cmd.Context(), cfg.Content.Base, nil)
			if err != nil {
				return err
			}
			errs, warnings := content.Problems(cfg.Content.Base, vc)

			if jsonOut {
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"base":     cfg.Content.Base,
					"errors":   errs,
					"warnings": warnings,
				}); err != nil {
					return err
				}
			} else {
				for _, w := range warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
				}
				for _, e := range errs {
					fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", e)
				}
				if len(errs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%d version(s) OK\n", len(vc.Versions))
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("content check found %d error(s)", len(errs))
			}
			return nil
		},
	}
}
