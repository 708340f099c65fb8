// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner executes one conversion at a time in a child process,
// bounded by a hard wall-clock deadline. The conversion engine cannot be
// trusted to honor cooperative cancellation, so the deadline is enforced
// from outside: when it expires the child is killed and nothing of the
// attempt survives.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/page-mill/pkg/types"
)

// maxStderrDetail bounds how much child stderr ends up in an error outcome.
const maxStderrDetail = 512

// waitDelay gives a killed child this long to release its pipes before the
// runner stops waiting on them.
const waitDelay = 5 * time.Second

// executor abstracts worker invocation for testing. Run must respect ctx:
// when the deadline expires the child is killed and Run returns with
// whatever output was produced so far.
type executor interface {
	Run(ctx context.Context, bin string, args []string) (stdout, stderr []byte, err error)
}

// osExecutor is the production executor backed by os/exec. CommandContext
// delivers SIGKILL on deadline expiry; WaitDelay bounds the wait for
// inherited pipe writers, so a wedged grandchild cannot stall the batch.
type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, bin string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Subprocess runs conversions through a hidden worker subcommand of the
// page-mill binary itself. One call, one child, one Outcome — Run never
// returns an error; every failure mode becomes outcome data.
type Subprocess struct {
	cfg    types.RunnerConfig
	exec   executor
	logger zerolog.Logger
}

// New creates a Subprocess runner from cfg.
func New(cfg types.RunnerConfig, logger zerolog.Logger) *Subprocess {
	return &Subprocess{
		cfg:    cfg,
		exec:   osExecutor{},
		logger: logger.With().Str("component", "runner").Logger(),
	}
}

// Run converts one URL in a child process and returns its Outcome.
//
// Deadline expiry yields a Timeout outcome with no elapsed time: the child
// was killed before it could report, so no measured duration exists. A
// child that exits non-zero, or exits zero with undecodable output, yields
// an Error outcome with the parent-measured elapsed time.
func (s *Subprocess) Run(ctx context.Context, url string) types.Outcome {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancel()

	start := time.Now()
	stdout, stderr, err := s.exec.Run(runCtx, s.cfg.WorkerBin, s.workerArgs(url))
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		s.logger.Error().Str("url", url).Dur("deadline", s.cfg.Deadline).Msg("worker killed at deadline")
		return types.TimeoutOutcome(url, s.cfg.Deadline)
	}

	if err != nil {
		detail := failureDetail(err, stderr)
		s.logger.Error().Str("url", url).Str("detail", detail).Msg("worker failed")
		return types.ErrorOutcome(url, elapsed, detail)
	}

	var outcome types.Outcome
	if err := json.Unmarshal(stdout, &outcome); err != nil {
		return types.ErrorOutcome(url, elapsed, fmt.Sprintf("worker produced invalid output: %v", err))
	}
	if outcome.URL == "" {
		outcome.URL = url
	}
	return outcome
}

// workerArgs builds the child's command line from the pass-through
// conversion settings.
func (s *Subprocess) workerArgs(url string) []string {
	cfg := s.cfg.Convert
	args := []string{
		"worker",
		"--url", url,
		"--dest-dir", cfg.DestDir,
		"--backend", string(cfg.Backend),
	}
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent", cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		args = append(args, "--fetch-timeout", cfg.Timeout.String())
	}
	return args
}

// failureDetail combines the exec error with the tail of the child's
// stderr, which usually carries the real reason.
func failureDetail(err error, stderr []byte) string {
	detail := strings.TrimSpace(string(stderr))
	if len(detail) > maxStderrDetail {
		detail = detail[len(detail)-maxStderrDetail:]
	}
	if detail == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, detail)
}
