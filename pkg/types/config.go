// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings for components that fetch pages.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "page-mill/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ConversionBackend identifies the URL conversion engine.
type ConversionBackend string

const (
	// BackendBuiltin fetches and converts pages in-process with goquery
	// and html-to-markdown.
	BackendBuiltin ConversionBackend = "builtin"

	// BackendDocling runs the docling container image for conversion.
	BackendDocling ConversionBackend = "docling"
)

// ConvertConfig holds settings for the conversion stage.
type ConvertConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the conversion engine: builtin or docling.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// DestDir is the artifact root; each site gets a subdirectory under it.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`
}

// RunnerConfig holds settings for the isolated worker subprocess.
type RunnerConfig struct {
	// WorkerBin is the binary invoked as the worker. Defaults to the
	// current executable.
	WorkerBin string `json:"worker_bin" yaml:"worker_bin"`

	// Deadline is the wall-clock budget for one conversion. When it
	// expires the worker process is killed.
	Deadline time.Duration `json:"deadline" yaml:"deadline"`

	// Convert is passed through to the worker on its command line.
	Convert ConvertConfig `json:"convert" yaml:"convert"`
}

// RunMode controls post-run handling of the work list.
type RunMode string

const (
	ModeDevelopment RunMode = "development"
	ModeProduction  RunMode = "production"
)

// RunConfig groups all settings for one batch run. Validate must pass
// before the batch starts; a validation failure is fatal to the run.
type RunConfig struct {
	// ListFile is the line-delimited URL work list.
	ListFile string `json:"list_file" yaml:"list_file" validate:"required"`

	// DestDir is the artifact root directory (leading "/" stripped by the
	// caller, so a misconfigured absolute path stays inside the workspace).
	DestDir string `json:"dest_dir" yaml:"dest_dir" validate:"required"`

	// Deadline is the per-item wall-clock budget.
	Deadline time.Duration `json:"deadline" yaml:"deadline" validate:"gt=0"`

	// Backend selects the conversion engine.
	Backend ConversionBackend `json:"backend" yaml:"backend" validate:"oneof=builtin docling"`

	// Mode is development or production; production truncates the work
	// list after the run.
	Mode RunMode `json:"mode" yaml:"mode" validate:"oneof=development production"`

	// GroupingSuffix collapses hosts ending in this suffix into one
	// reporting bucket.
	GroupingSuffix string `json:"grouping_suffix" yaml:"grouping_suffix" validate:"required"`

	// WebhookURL receives the final report as a JSON POST. Empty disables
	// notification.
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty" validate:"omitempty,http_url"`

	// ReportFile, when set, additionally exports the report to a local
	// .json or .yaml file.
	ReportFile string `json:"report_file,omitempty" yaml:"report_file,omitempty"`

	// HistoryDir is the run-ledger database location.
	HistoryDir string `json:"history_dir" yaml:"history_dir"`

	// NoHistory disables the run ledger.
	NoHistory bool `json:"no_history" yaml:"no_history"`

	HTTPConfig `yaml:",inline"`
}

// Validate checks the assembled configuration before the core runs.
func (c *RunConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
