// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/page-mill/internal/artifact"
	"github.com/pdiddy/page-mill/internal/convert"
	"github.com/pdiddy/page-mill/pkg/types"
)

// workerCmd is the isolated execution context: the parent runner spawns
// `page-mill worker --url U` once per item and kills it at the deadline.
// The single JSON Outcome goes to stdout; logs go to stderr. A conversion
// failure still exits 0 — the outcome carries the error — so a non-zero
// exit always means the invocation itself was broken.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Hidden: true,
	Short:  "Convert one URL and emit its outcome as JSON",
	RunE:   runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	destDir, _ := cmd.Flags().GetString("dest-dir")
	backend, _ := cmd.Flags().GetString("backend")
	userAgent, _ := cmd.Flags().GetString("user-agent")
	fetchTimeout, _ := cmd.Flags().GetDuration("fetch-timeout")

	conv, err := convert.New(types.ConvertConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: userAgent, Timeout: fetchTimeout},
		Backend:    types.ConversionBackend(backend),
		DestDir:    destDir,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("url", url).Msg("starting conversion")

	start := time.Now()
	outcome := convertOne(cmd, conv, url, destDir, start)

	if outcome.Status == types.StatusSuccess {
		logger.Info().Str("url", url).Str("elapsed", outcome.ProcessingTimeFormatted).Msg("conversion done")
	} else {
		logger.Error().Str("url", url).Str("error", outcome.ErrorMessage).Msg("conversion failed")
	}

	return json.NewEncoder(os.Stdout).Encode(outcome)
}

func convertOne(cmd *cobra.Command, conv convert.Converter, url, destDir string, start time.Time) types.Outcome {
	doc, err := conv.Convert(cmd.Context(), url)
	if err != nil {
		return types.ErrorOutcome(url, time.Since(start), err.Error())
	}

	mdPath, _, err := artifact.Write(doc, url, destDir)
	if err != nil {
		return types.ErrorOutcome(url, time.Since(start), err.Error())
	}

	logger.Info().Str("path", mdPath).Msg("artifacts saved")
	return types.SuccessOutcome(url, time.Since(start))
}

func init() {
	workerCmd.Flags().String("url", "", "URL to convert")
	workerCmd.Flags().String("dest-dir", "scraping_data", "artifact root directory")
	workerCmd.Flags().String("backend", string(types.BackendBuiltin), "conversion backend: builtin or docling")
	workerCmd.Flags().String("user-agent", "", "User-Agent for the builtin backend")
	workerCmd.Flags().Duration("fetch-timeout", 0, "HTTP timeout for the builtin backend")
	workerCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(workerCmd)
}
