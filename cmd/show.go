package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/store"
)

var (
	flagKind  string
	flagLimit int
)

var showCmd = &cobra.Command{
	Use:   "show [run]",
	Short: "Print a stored run artifact, or list recent runs",
	Long: `Show reads artifacts persisted with artifacts.driver=sqlite.
Without arguments it lists the most recent runs.

Examples:
  auditpipe show
  auditpipe show 20250102_030405_0123abcd
  auditpipe show 20250102_030405_0123abcd --kind paragraphs`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(flagKind)
		if err != nil {
			return err
		}

		s, err := store.NewSQLite(cfg.Artifacts.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if err := s.Migrate(ctx); err != nil {
			return err
		}

		if len(args) == 0 {
			runs, err := s.Runs(ctx, flagLimit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintln(os.Stdout, r)
			}
			return nil
		}

		data, err := s.Get(ctx, args[0], kind)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	showCmd.Flags().StringVar(&flagKind, "kind", string(core.ArtifactJSON), "Artifact kind: raw, paragraphs, data or markdown")
	showCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of runs to list")
	rootCmd.AddCommand(showCmd)
}

func parseKind(name string) (core.ArtifactKind, error) {
	switch k := core.ArtifactKind(name); k {
	case core.ArtifactHTML, core.ArtifactText, core.ArtifactJSON, core.ArtifactMarkdown:
		return k, nil
	default:
		return "", eris.Errorf("unknown artifact kind %q", name)
	}
}
