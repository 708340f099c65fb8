// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/page-mill/internal/container"
	"github.com/pdiddy/page-mill/pkg/types"
)

const imageDocling = "docling:latest"

// DoclingConverter converts pages by running the docling container image.
// It depends on a container.Runtime (docker or podman) injected at
// construction time. The container takes the source URL as its argument and
// emits a JSON object with the markdown and structured document on stdout.
type DoclingConverter struct {
	runtime container.Runtime
}

// NewDocling creates a converter that uses the given container runtime to
// run the docling image. It verifies that the image exists locally before
// returning.
func NewDocling(rt container.Runtime) (*DoclingConverter, error) {
	if err := rt.ImageExists(imageDocling); err != nil {
		return nil, fmt.Errorf("docling image not available in %s: %w", rt.Name(), err)
	}
	return &DoclingConverter{runtime: rt}, nil
}

// Convert runs the docling container against url and decodes its output.
func (d *DoclingConverter) Convert(ctx context.Context, url string) (types.Document, error) {
	var out bytes.Buffer
	if err := d.runtime.Run(ctx, imageDocling, []string{url}, nil, &out); err != nil {
		return types.Document{}, fmt.Errorf("converting %s with docling: %w", url, err)
	}

	var payload struct {
		Markdown string          `json:"markdown"`
		Document json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		return types.Document{}, fmt.Errorf("parsing docling output for %s: %w", url, err)
	}
	if payload.Markdown == "" {
		return types.Document{}, fmt.Errorf("docling produced no markdown for %s", url)
	}

	return types.Document{Markdown: payload.Markdown, Structured: payload.Document}, nil
}
