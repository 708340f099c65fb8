// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch orchestrates one run over the URL work list: strictly
// sequential execution through the isolated runner, with outcomes
// accumulated into a domain-grouped report. Exactly one conversion is in
// flight at any time; the conversion engine is memory-heavy, so throughput
// is deliberately traded for resource safety.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/page-mill/internal/urlutil"
	"github.com/pdiddy/page-mill/pkg/types"
)

// Runner executes one work item in isolation and always produces an
// Outcome; failures are data, never errors.
type Runner interface {
	Run(ctx context.Context, url string) types.Outcome
}

// Summary counts terminal states for one batch run.
type Summary struct {
	Succeeded int
	Failed    int
	TimedOut  int
}

// Total returns the number of items processed.
func (s Summary) Total() int {
	return s.Succeeded + s.Failed + s.TimedOut
}

// HasFailures reports whether any item errored or timed out.
func (s Summary) HasFailures() bool {
	return s.Failed+s.TimedOut > 0
}

// Run processes items one at a time and returns the grouped report.
//
// Items are pre-sorted by (primary domain, URL) so progress output walks
// site by site. Every item yields exactly one outcome; an error or timeout
// on one item never aborts the rest. The accumulation map lives entirely
// on this call's stack and is never observable mid-run.
func Run(ctx context.Context, r Runner, items []string, groupingSuffix string, logger zerolog.Logger) (types.Report, Summary) {
	sorted := append([]string(nil), items...)
	urlutil.SortItems(sorted, groupingSuffix)

	logger = logger.With().Str("component", "batch").Logger()
	logger.Info().Int("total", len(sorted)).Msg("starting batch")

	groups := make(map[string][]types.Outcome)
	var summary Summary

	for i, url := range sorted {
		logger.Info().Int("item", i+1).Int("total", len(sorted)).Str("url", url).Msg("processing url")

		outcome := r.Run(ctx, url)
		switch outcome.Status {
		case types.StatusSuccess:
			summary.Succeeded++
			logger.Info().Str("url", url).Str("elapsed", outcome.ProcessingTimeFormatted).Msg("conversion finished")
		case types.StatusTimeout:
			summary.TimedOut++
			logger.Error().Str("url", url).Str("error", outcome.ErrorMessage).Msg("conversion timed out")
		default:
			summary.Failed++
			logger.Error().Str("url", url).Str("error", outcome.ErrorMessage).Msg("conversion failed")
		}

		key := urlutil.PrimaryDomain(urlutil.Host(url), groupingSuffix)
		groups[key] = append(groups[key], outcome)
	}

	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("timed_out", summary.TimedOut).
		Msg("batch complete")

	return buildReport(groups), summary
}

// buildReport flattens the accumulation map into the final payload: groups
// ascending by domain, outcomes within a group ascending by URL.
func buildReport(groups map[string][]types.Outcome) types.Report {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	report := make(types.Report, 0, len(keys))
	for _, k := range keys {
		outcomes := groups[k]
		sort.Slice(outcomes, func(i, j int) bool {
			return outcomes[i].URL < outcomes[j].URL
		})
		report = append(report, types.DomainReport{Domain: k, URLs: outcomes})
	}
	return report
}

// WriteReport exports the report to a local file, format switched on the
// extension: .json or .yaml/.yml.
func WriteReport(report types.Report, path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := filepath.Ext(path); ext {
	case ".json":
		data, err = json.MarshalIndent(report, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		return fmt.Errorf("unsupported report format %q: use .json, .yaml, or .yml", ext)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
