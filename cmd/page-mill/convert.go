// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/page-mill/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [urls...]",
	Short: "Convert the given URLs without touching the work list",
	Long: `Convert runs the same isolated per-URL pipeline as run, but over URLs
given on the command line: artifacts are written, the grouped report is
printed to stdout, and the run is recorded in the history ledger. The work
list file is not read or cleared and no webhook is sent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := assembleRunConfig(cmd)
	if err != nil {
		return err
	}
	// Ad-hoc conversions never notify and never touch the work list.
	cfg.WebhookURL = ""
	cfg.Mode = types.ModeDevelopment

	items := make([]string, 0, len(args))
	for _, a := range args {
		if a != "" {
			items = append(items, a)
		}
	}

	report, summary, run, err := executeBatch(cmd.Context(), cfg, items)
	if err != nil {
		return err
	}

	if !cfg.NoHistory {
		recordHistory(cmd.Context(), cfg.HistoryDir, run, report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("printing report: %w", err)
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d of %d conversions failed", summary.Failed+summary.TimedOut, summary.Total())
	}
	return nil
}

func init() {
	addRunFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}
