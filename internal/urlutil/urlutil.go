// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urlutil handles work-list loading, domain grouping, and the
// filename sanitization shared by the batch pipeline.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ErrNoItems indicates the work list is missing or yields no usable URLs.
// This is fatal to a run: no report is produced and no webhook is sent.
var ErrNoItems = errors.New("no usable URLs in work list")

// PrimaryDomain maps a host to its reporting group. Hosts ending in suffix
// collapse to the suffix itself; every other host is its own group. The
// function is pure and idempotent, and must be the single grouping rule for
// both the work-list pre-sort and the outcome accumulator.
func PrimaryDomain(host, suffix string) string {
	if suffix != "" && strings.HasSuffix(host, suffix) {
		return suffix
	}
	return host
}

// Host extracts the host (host:port) portion of a URL. Returns "" when the
// URL does not parse; such items group under the empty key.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Host
}

// SortItems orders the work list by (primary domain, raw URL) ascending so
// that processing progresses site by site.
func SortItems(items []string, suffix string) {
	sort.SliceStable(items, func(i, j int) bool {
		pi := PrimaryDomain(Host(items[i]), suffix)
		pj := PrimaryDomain(Host(items[j]), suffix)
		if pi != pj {
			return pi < pj
		}
		return items[i] < items[j]
	})
}

// LoadList reads a line-delimited URL list, trimming whitespace and
// dropping blank lines. A missing file or an empty result returns
// ErrNoItems.
func LoadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s not found", ErrNoItems, path)
		}
		return nil, fmt.Errorf("reading work list %s: %w", path, err)
	}

	var items []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoItems, path)
	}
	return items, nil
}

// TruncateList clears the work list file after a production-mode run.
func TruncateList(path string) error {
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("truncating work list %s: %w", path, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// SanitizeFilename replaces every character outside letters, digits, "-",
// "_", and "." with "_".
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
