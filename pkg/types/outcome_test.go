// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0.5, "0.50 seconds"},
		{3.42, "3.42 seconds"},
		{59.99, "59.99 seconds"},
		{60, "1.00 minutes"},
		{90, "1.50 minutes"},
		{3599, "59.98 minutes"},
		{3600, "1.00 hours"},
		{7200, "2.00 hours"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.seconds); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestSuccessOutcome(t *testing.T) {
	o := SuccessOutcome("https://example.com/a", 3424*time.Millisecond)

	assert.Equal(t, StatusSuccess, o.Status)
	require.NotNil(t, o.ProcessingTime)
	assert.Equal(t, 3.42, *o.ProcessingTime)
	assert.Equal(t, "3.42 seconds", o.ProcessingTimeFormatted)
	assert.Empty(t, o.ErrorMessage)
}

func TestErrorOutcome(t *testing.T) {
	o := ErrorOutcome("https://example.com/a", 2*time.Second, "connection refused")

	assert.Equal(t, StatusError, o.Status)
	require.NotNil(t, o.ProcessingTime)
	assert.Equal(t, 2.0, *o.ProcessingTime)
	assert.Equal(t, "connection refused", o.ErrorMessage)
}

func TestTimeoutOutcome(t *testing.T) {
	o := TimeoutOutcome("https://slow.example", time.Minute)

	assert.Equal(t, StatusTimeout, o.Status)
	assert.Nil(t, o.ProcessingTime, "timeout carries no measured duration")
	assert.Empty(t, o.ProcessingTimeFormatted)
	assert.Equal(t, "timeout after 1m0s", o.ErrorMessage)
}

// The webhook payload serializes processing_time as null on timeout and
// omits the formatted string entirely.
func TestOutcomeJSON(t *testing.T) {
	timeout := TimeoutOutcome("https://slow.example", time.Minute)
	data, err := json.Marshal(timeout)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"processing_time":null`)
	assert.NotContains(t, string(data), "processing_time_formatted")

	success := SuccessOutcome("https://example.com", 1500*time.Millisecond)
	data, err = json.Marshal(success)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"processing_time":1.5`)
	assert.Contains(t, string(data), `"processing_time_formatted":"1.50 seconds"`)
	assert.False(t, strings.Contains(string(data), "error_message"))
}
