// Package cmd implements the CLI commands for auditpipe using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "auditpipe",
	Short: "Turn degree-audit HTML into structured progress records",
	Long: `auditpipe parses degree-progress (advising) reports captured as HTML into a
normalized record: advising metadata, per-section courses and requirements,
completed and in-progress course lists, totals and a semester breakdown.

Usage:
  auditpipe convert <file|url|dir> [flags]
  auditpipe serve [--port 8000]
  auditpipe show [run]`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
