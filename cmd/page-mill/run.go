// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/page-mill/internal/batch"
	"github.com/pdiddy/page-mill/internal/history"
	"github.com/pdiddy/page-mill/internal/notify"
	"github.com/pdiddy/page-mill/internal/runner"
	"github.com/pdiddy/page-mill/internal/secrets"
	"github.com/pdiddy/page-mill/internal/urlutil"
	"github.com/pdiddy/page-mill/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the URL work list and report outcomes",
	Long: `Run loads the work list, converts every URL in an isolated worker
process bounded by the deadline, writes Markdown and JSON artifacts per
site, and delivers the domain-grouped report to the webhook if one is
configured. In production mode the work list is truncated afterwards.

A failed or timed-out URL never aborts the batch; run exits non-zero when
any item failed, after the whole list has been processed.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := assembleRunConfig(cmd)
	if err != nil {
		return err
	}

	items, err := urlutil.LoadList(cfg.ListFile)
	if err != nil {
		logger.Error().Err(err).Str("list_file", cfg.ListFile).Msg("cannot start run")
		return err
	}

	report, summary, run, err := executeBatch(cmd.Context(), cfg, items)
	if err != nil {
		return err
	}

	if cfg.WebhookURL != "" {
		// Notification failures are logged inside Send and swallowed here;
		// they never affect the exit status.
		run.Notified = notify.Send(cmd.Context(), nil, report, cfg.WebhookURL, logger) == nil
	} else {
		logger.Info().Msg("webhook not configured; notification not sent")
	}

	if !cfg.NoHistory {
		recordHistory(cmd.Context(), cfg.HistoryDir, run, report)
	}

	if cfg.Mode == types.ModeProduction {
		if err := urlutil.TruncateList(cfg.ListFile); err != nil {
			logger.Error().Err(err).Msg("work list truncation failed")
		} else {
			logger.Info().Str("list_file", cfg.ListFile).Msg("work list cleared after processing")
		}
	} else {
		logger.Info().Msg("development mode; work list not cleared")
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d of %d conversions failed", summary.Failed+summary.TimedOut, summary.Total())
	}
	return nil
}

// executeBatch runs the core pipeline shared by run and convert: isolated
// workers over the items, report assembly, and the optional local export.
// Recording history is the caller's job, after the notification outcome is
// known.
func executeBatch(ctx context.Context, cfg types.RunConfig, items []string) (types.Report, batch.Summary, types.Run, error) {
	if err := os.MkdirAll(cfg.DestDir, 0o755); err != nil {
		return nil, batch.Summary{}, types.Run{}, fmt.Errorf("creating destination directory %s: %w", cfg.DestDir, err)
	}

	workerBin, err := os.Executable()
	if err != nil {
		return nil, batch.Summary{}, types.Run{}, fmt.Errorf("locating worker binary: %w", err)
	}

	run := types.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DestDir:   cfg.DestDir,
		Backend:   cfg.Backend,
		Mode:      cfg.Mode,
	}

	logger.Info().
		Str("run_id", run.ID).
		Int("items", len(items)).
		Str("dest_dir", cfg.DestDir).
		Str("backend", string(cfg.Backend)).
		Dur("deadline", cfg.Deadline).
		Msg("starting run")

	r := runner.New(types.RunnerConfig{
		WorkerBin: workerBin,
		Deadline:  cfg.Deadline,
		Convert: types.ConvertConfig{
			HTTPConfig: cfg.HTTPConfig,
			Backend:    cfg.Backend,
			DestDir:    cfg.DestDir,
		},
	}, logger)

	report, summary := batch.Run(ctx, r, items, cfg.GroupingSuffix, logger)
	run.FinishedAt = time.Now().UTC()
	run.Succeeded = summary.Succeeded
	run.Failed = summary.Failed
	run.TimedOut = summary.TimedOut

	if cfg.ReportFile != "" {
		if err := batch.WriteReport(report, cfg.ReportFile); err != nil {
			logger.Error().Err(err).Msg("report export failed")
		} else {
			logger.Info().Str("path", cfg.ReportFile).Msg("report exported")
		}
	}

	return report, summary, run, nil
}

// recordHistory appends the completed run to the ledger. Ledger failures
// are logged only; the run's artifacts and report already exist.
func recordHistory(ctx context.Context, dir string, run types.Run, report types.Report) {
	store, err := history.Open(dir)
	if err != nil {
		logger.Error().Err(err).Msg("history ledger unavailable")
		return
	}
	defer store.Close()

	if err := store.Record(ctx, run, report); err != nil {
		logger.Error().Err(err).Msg("history record failed")
		return
	}
	logger.Info().Str("run_id", run.ID).Msg("run recorded")
}

// assembleRunConfig resolves every setting with flag > config/env > default
// precedence and validates the result.
func assembleRunConfig(cmd *cobra.Command) (types.RunConfig, error) {
	cfg := types.RunConfig{
		ListFile:       stringSetting(cmd, "list-file", "list_file", "urls.txt"),
		DestDir:        stringSetting(cmd, "dest-dir", "dest_dir", "scraping_data"),
		Deadline:       durationSetting(cmd, "deadline", "deadline", 60*time.Second),
		Backend:        types.ConversionBackend(stringSetting(cmd, "backend", "backend", string(types.BackendBuiltin))),
		Mode:           types.RunMode(strings.ToLower(stringSetting(cmd, "mode", "mode", string(types.ModeDevelopment)))),
		GroupingSuffix: stringSetting(cmd, "grouping-suffix", "grouping_suffix", "asimov.academy"),
		WebhookURL:     stringSetting(cmd, "webhook-url", "webhook_url", ""),
		ReportFile:     stringSetting(cmd, "report-file", "report_file", ""),
		HistoryDir:     stringSetting(cmd, "history-dir", "history_dir", ".page-mill"),
		HTTPConfig: types.HTTPConfig{
			UserAgent: stringSetting(cmd, "user-agent", "user_agent", "page-mill/0.1"),
			Timeout:   durationSetting(cmd, "fetch-timeout", "fetch_timeout", 45*time.Second),
		},
	}
	cfg.NoHistory, _ = cmd.Flags().GetBool("no-history")

	// A stray leading separator would scatter artifacts at the filesystem
	// root; keep them relative.
	cfg.DestDir = strings.TrimSpace(cfg.DestDir)
	for strings.HasPrefix(cfg.DestDir, "/") {
		cfg.DestDir = strings.TrimPrefix(cfg.DestDir, "/")
	}

	// Lowest-priority webhook source: the secrets directory.
	if cfg.WebhookURL == "" {
		cfg.WebhookURL = loadedSecrets[secrets.KeyWebhookURL]
	}

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("configuration rejected")
		return types.RunConfig{}, err
	}
	return cfg, nil
}

// stringSetting resolves one string setting: an explicitly set flag wins,
// then the viper key (config file or environment), then the default.
func stringSetting(cmd *cobra.Command, flag, key, def string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(key) {
		if v := strings.TrimSpace(viper.GetString(key)); v != "" {
			return v
		}
	}
	return def
}

func durationSetting(cmd *cobra.Command, flag, key string, def time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	if viper.IsSet(key) {
		if v := viper.GetDuration(key); v > 0 {
			return v
		}
	}
	return def
}

// addRunFlags registers the settings shared by run and convert.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("dest-dir", "scraping_data", "artifact root directory")
	cmd.Flags().Duration("deadline", 60*time.Second, "per-URL wall-clock budget")
	cmd.Flags().String("backend", string(types.BackendBuiltin), "conversion backend: builtin or docling")
	cmd.Flags().String("grouping-suffix", "asimov.academy", "collapse hosts ending in this suffix into one report group")
	cmd.Flags().String("report-file", "", "also export the report to this .json or .yaml file")
	cmd.Flags().String("history-dir", ".page-mill", "run-history database directory")
	cmd.Flags().Bool("no-history", false, "skip recording the run in the history ledger")
	cmd.Flags().String("user-agent", "page-mill/0.1", "User-Agent for the builtin backend")
	cmd.Flags().Duration("fetch-timeout", 45*time.Second, "HTTP timeout for the builtin backend")
}

func init() {
	addRunFlags(runCmd)
	runCmd.Flags().String("list-file", "urls.txt", "line-delimited URL work list")
	runCmd.Flags().String("mode", string(types.ModeDevelopment), "run mode: development or production")
	runCmd.Flags().String("webhook-url", "", "webhook endpoint for the final report")

	rootCmd.AddCommand(runCmd)
}
