// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/page-mill/internal/history"
	"github.com/pdiddy/page-mill/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs",
	Long: `History lists completed runs from the local ledger. With --run it
shows the domain-grouped outcomes recorded for that run.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("history-dir")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID != "" {
		report, err := store.Outcomes(cmd.Context(), runID)
		if err != nil {
			return err
		}
		return formatOutcomes(report, jsonOutput)
	}

	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return formatRuns(runs, jsonOutput)
}

func formatRuns(runs []types.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-8s  %-11s  %4s  %4s  %4s  %s\n",
		"Run", "Started", "Backend", "Mode", "OK", "Err", "T/O", "Notified")
	for _, r := range runs {
		notified := "no"
		if r.Notified {
			notified = "yes"
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-8s  %-11s  %4d  %4d  %4d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Backend, r.Mode,
			r.Succeeded, r.Failed, r.TimedOut, notified)
	}
	fmt.Fprintf(os.Stdout, "\n%d run(s)\n", len(runs))
	return nil
}

func formatOutcomes(report types.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, group := range report {
		fmt.Fprintf(os.Stdout, "%s\n", group.Domain)
		for _, o := range group.URLs {
			detail := o.ProcessingTimeFormatted
			if o.Status != types.StatusSuccess {
				detail = o.ErrorMessage
			}
			fmt.Fprintf(os.Stdout, "  %-8s  %s  %s\n", o.Status, o.URL, detail)
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().String("history-dir", ".page-mill", "run-history database directory")
	historyCmd.Flags().String("run", "", "show outcomes for this run ID")
	historyCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}
