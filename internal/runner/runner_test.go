// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/page-mill/pkg/types"
)

// fakeExecutor scripts the child process: canned output, a forced error,
// or a hang that only the deadline can break.
type fakeExecutor struct {
	stdout  string
	stderr  string
	err     error
	hang    bool
	gotBin  string
	gotArgs []string

	// ctxAtExit records the context state when Run returned, so tests can
	// observe that the deadline actually cancelled the child.
	ctxAtExit error
}

func (f *fakeExecutor) Run(ctx context.Context, bin string, args []string) ([]byte, []byte, error) {
	f.gotBin = bin
	f.gotArgs = args
	if f.hang {
		<-ctx.Done()
		f.ctxAtExit = ctx.Err()
		return nil, nil, ctx.Err()
	}
	f.ctxAtExit = ctx.Err()
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestRunner(exec executor, deadline time.Duration) *Subprocess {
	return &Subprocess{
		cfg: types.RunnerConfig{
			WorkerBin: "/usr/local/bin/page-mill",
			Deadline:  deadline,
			Convert: types.ConvertConfig{
				HTTPConfig: types.HTTPConfig{UserAgent: "page-mill/test", Timeout: 45 * time.Second},
				Backend:    types.BackendBuiltin,
				DestDir:    "scraping_data",
			},
		},
		exec:   exec,
		logger: zerolog.Nop(),
	}
}

func TestRunSuccess(t *testing.T) {
	exec := &fakeExecutor{
		stdout: `{"url":"https://example.com/a","status":"success","processing_time":1.5,"processing_time_formatted":"1.50 seconds"}`,
	}
	s := newTestRunner(exec, time.Minute)

	outcome := s.Run(context.Background(), "https://example.com/a")

	assert.Equal(t, types.StatusSuccess, outcome.Status)
	assert.Equal(t, "https://example.com/a", outcome.URL)
	require.NotNil(t, outcome.ProcessingTime)
	assert.Equal(t, 1.5, *outcome.ProcessingTime)
	assert.Empty(t, outcome.ErrorMessage)
}

func TestRunWorkerArgs(t *testing.T) {
	exec := &fakeExecutor{stdout: `{"url":"u","status":"success"}`}
	s := newTestRunner(exec, time.Minute)

	s.Run(context.Background(), "https://example.com/a")

	assert.Equal(t, "/usr/local/bin/page-mill", exec.gotBin)
	assert.Equal(t, []string{
		"worker",
		"--url", "https://example.com/a",
		"--dest-dir", "scraping_data",
		"--backend", "builtin",
		"--user-agent", "page-mill/test",
		"--fetch-timeout", "45s",
	}, exec.gotArgs)
}

func TestRunChildFailure(t *testing.T) {
	exec := &fakeExecutor{
		stderr: "fetching https://example.com/a: connection refused\n",
		err:    errors.New("exit status 1"),
	}
	s := newTestRunner(exec, time.Minute)

	outcome := s.Run(context.Background(), "https://example.com/a")

	assert.Equal(t, types.StatusError, outcome.Status)
	require.NotNil(t, outcome.ProcessingTime, "error outcomes carry the measured elapsed time")
	assert.Contains(t, outcome.ErrorMessage, "exit status 1")
	assert.Contains(t, outcome.ErrorMessage, "connection refused")
}

func TestRunChildFailureWithoutStderr(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 2")}
	s := newTestRunner(exec, time.Minute)

	outcome := s.Run(context.Background(), "https://example.com/a")

	assert.Equal(t, types.StatusError, outcome.Status)
	assert.Equal(t, "exit status 2", outcome.ErrorMessage)
}

func TestRunStderrTailBounded(t *testing.T) {
	exec := &fakeExecutor{
		stderr: strings.Repeat("x", 2000) + "the real reason",
		err:    errors.New("exit status 1"),
	}
	s := newTestRunner(exec, time.Minute)

	outcome := s.Run(context.Background(), "https://example.com/a")

	assert.Contains(t, outcome.ErrorMessage, "the real reason")
	assert.Less(t, len(outcome.ErrorMessage), 600)
}

func TestRunTimeout(t *testing.T) {
	exec := &fakeExecutor{hang: true}
	s := newTestRunner(exec, 20*time.Millisecond)

	start := time.Now()
	outcome := s.Run(context.Background(), "https://slow.example")
	waited := time.Since(start)

	assert.Equal(t, types.StatusTimeout, outcome.Status)
	assert.Equal(t, "https://slow.example", outcome.URL)
	assert.Nil(t, outcome.ProcessingTime, "timeout carries no measured duration")
	assert.Equal(t, "timeout after 20ms", outcome.ErrorMessage)

	// The child observed the cancellation: no orphaned work continues.
	assert.ErrorIs(t, exec.ctxAtExit, context.DeadlineExceeded)
	assert.Less(t, waited, 5*time.Second)
}

func TestRunGarbageOutput(t *testing.T) {
	exec := &fakeExecutor{stdout: "panic: something went sideways"}
	s := newTestRunner(exec, time.Minute)

	outcome := s.Run(context.Background(), "https://example.com/a")

	assert.Equal(t, types.StatusError, outcome.Status)
	assert.Contains(t, outcome.ErrorMessage, "worker produced invalid output")
}

func TestRunFillsMissingURL(t *testing.T) {
	// A worker outcome without the url field still maps back to the item.
	exec := &fakeExecutor{stdout: `{"status":"success","processing_time":0.1}`}
	s := newTestRunner(exec, time.Minute)

	outcome := s.Run(context.Background(), "https://example.com/a")
	assert.Equal(t, "https://example.com/a", outcome.URL)
}

func TestRunParentCancellation(t *testing.T) {
	// An already-cancelled parent context surfaces as Timeout-free error,
	// not a hang.
	exec := &fakeExecutor{hang: true}
	s := newTestRunner(exec, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := s.Run(ctx, "https://example.com/a")
	assert.Equal(t, types.StatusError, outcome.Status)
}
