// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
	"time"
)

// Status is the terminal state of one URL conversion.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Outcome is the immutable record of processing one URL. Exactly one Outcome
// exists per work item; it is created when the item reaches a terminal state
// and never mutated afterwards.
//
// ProcessingTime is nil when the item timed out: the worker was killed before
// it could report, so no measured duration exists. ErrorMessage is set iff
// Status != StatusSuccess.
type Outcome struct {
	// URL is the work item exactly as submitted.
	URL string `json:"url" yaml:"url"`

	// Status is success, error, or timeout.
	Status Status `json:"status" yaml:"status"`

	// ProcessingTime is the measured wall time in seconds, rounded to two
	// decimals. Serialized as null on timeout.
	ProcessingTime *float64 `json:"processing_time" yaml:"processing_time"`

	// ProcessingTimeFormatted is ProcessingTime rendered for humans
	// ("3.42 seconds", "1.20 minutes"). Absent on timeout.
	ProcessingTimeFormatted string `json:"processing_time_formatted,omitempty" yaml:"processing_time_formatted,omitempty"`

	// ErrorMessage describes the failure for error and timeout outcomes.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// SuccessOutcome builds the outcome for a conversion that completed.
func SuccessOutcome(url string, elapsed time.Duration) Outcome {
	s := roundSeconds(elapsed)
	return Outcome{
		URL:                     url,
		Status:                  StatusSuccess,
		ProcessingTime:          &s,
		ProcessingTimeFormatted: FormatSeconds(s),
	}
}

// ErrorOutcome builds the outcome for a conversion that failed before the
// deadline. The elapsed duration covers the work up to the failure point.
func ErrorOutcome(url string, elapsed time.Duration, detail string) Outcome {
	s := roundSeconds(elapsed)
	return Outcome{
		URL:                     url,
		Status:                  StatusError,
		ProcessingTime:          &s,
		ProcessingTimeFormatted: FormatSeconds(s),
		ErrorMessage:            detail,
	}
}

// TimeoutOutcome builds the outcome for a conversion killed at the deadline.
// No elapsed time is recorded: the worker never reported back.
func TimeoutOutcome(url string, deadline time.Duration) Outcome {
	return Outcome{
		URL:          url,
		Status:       StatusTimeout,
		ErrorMessage: fmt.Sprintf("timeout after %s", deadline),
	}
}

// FormatSeconds renders a duration in seconds the way run summaries report
// it: seconds under a minute, minutes under an hour, hours beyond.
func FormatSeconds(s float64) string {
	switch {
	case s < 60:
		return fmt.Sprintf("%.2f seconds", s)
	case s < 3600:
		return fmt.Sprintf("%.2f minutes", s/60)
	default:
		return fmt.Sprintf("%.2f hours", s/3600)
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
