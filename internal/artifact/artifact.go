// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact persists converted documents as Markdown and JSON files
// under a per-site directory.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/page-mill/internal/urlutil"
	"github.com/pdiddy/page-mill/pkg/types"
)

// fallbackTitle names artifacts for pages whose Markdown carries no heading.
const fallbackTitle = "index"

// errorMarker replaces the structured export when the backend has none.
var errorMarker = json.RawMessage(`{"error": "Failed to export the document."}`)

// payload is the JSON artifact written next to the Markdown file.
type payload struct {
	Title       string          `json:"title"`
	SourceURL   string          `json:"source_url"`
	ProcessedAt string          `json:"processed_at"`
	Content     json.RawMessage `json:"content"`
	Markdown    string          `json:"markdown"`
}

// PageTitle derives the artifact base name from the first Markdown heading,
// sanitized to a filesystem-safe character set. Pages without a heading
// fall back to "index".
func PageTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if !strings.HasPrefix(line, "#") {
			continue
		}
		title := strings.TrimSpace(strings.Trim(line, "#"))
		if title != "" {
			return urlutil.SanitizeFilename(title)
		}
	}
	return fallbackTitle
}

// Write persists doc under root/<host>/ as <title>.md and <title>.json and
// returns both paths. Repeated conversions of the same title overwrite
// silently. Both files are written via temp file and rename, so readers
// never observe a partial artifact.
func Write(doc types.Document, sourceURL, root string) (mdPath, jsonPath string, err error) {
	siteDir := filepath.Join(root, urlutil.Host(sourceURL))
	if err := os.MkdirAll(siteDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating site directory %s: %w", siteDir, err)
	}

	title := PageTitle(doc.Markdown)
	mdPath = filepath.Join(siteDir, title+".md")
	jsonPath = filepath.Join(siteDir, title+".json")

	if err := writeAtomic(mdPath, []byte(doc.Markdown)); err != nil {
		return "", "", fmt.Errorf("writing markdown artifact: %w", err)
	}

	content := doc.Structured
	if len(content) == 0 || !json.Valid(content) {
		content = errorMarker
	}

	data, err := json.MarshalIndent(payload{
		Title:       title,
		SourceURL:   sourceURL,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
		Content:     content,
		Markdown:    doc.Markdown,
	}, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshaling JSON artifact: %w", err)
	}

	if err := writeAtomic(jsonPath, data); err != nil {
		return "", "", fmt.Errorf("writing JSON artifact: %w", err)
	}

	return mdPath, jsonPath, nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
