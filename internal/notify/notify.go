// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers the final report to a webhook endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/page-mill/pkg/types"
)

// DefaultTimeout bounds the webhook POST when the caller supplies a client
// without one.
const DefaultTimeout = 10 * time.Second

// Send POSTs the report as JSON to webhookURL. A 2xx response is logged as
// success; any other status or a transport failure is logged and returned.
// Callers treat the returned error as advisory — notification failures
// never affect the report or the run's outcome.
func Send(ctx context.Context, client *http.Client, report types.Report, webhookURL string, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "notify").Logger()

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	body, err := json.Marshal(report)
	if err != nil {
		logger.Error().Err(err).Msg("webhook payload marshal failed")
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("webhook request build failed")
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("webhook send failed")
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logger.Info().Int("status", resp.StatusCode).Msg("webhook sent")
		return nil
	}

	logger.Error().Int("status", resp.StatusCode).Msg("webhook rejected")
	return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
}
