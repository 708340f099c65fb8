// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements URL-to-Markdown conversion with pluggable
// backends.
package convert

import (
	"context"
	"fmt"

	"github.com/pdiddy/page-mill/internal/container"
	"github.com/pdiddy/page-mill/pkg/types"
)

// Converter transforms a web page into a Document. Different backends
// (builtin, docling) implement this interface.
type Converter interface {
	// Convert fetches the page at url and returns its Markdown and
	// structured representations.
	Convert(ctx context.Context, url string) (types.Document, error)
}

// New constructs the backend named in cfg. The docling backend requires a
// working container runtime with the docling image present; the check runs
// here so a misconfigured environment fails before any URL is attempted.
func New(cfg types.ConvertConfig) (Converter, error) {
	switch cfg.Backend {
	case types.BackendBuiltin, "":
		return NewBuiltin(cfg), nil
	case types.BackendDocling:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return NewDocling(rt)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}
