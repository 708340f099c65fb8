// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/page-mill/internal/httputil"
	"github.com/pdiddy/page-mill/pkg/types"
)

const defaultFetchTimeout = 45 * time.Second

// Builtin converts pages in-process: fetch, parse with goquery, render
// Markdown, and build a structured outline export.
type Builtin struct {
	client    *http.Client
	userAgent string
}

// NewBuiltin creates the in-process converter from the HTTP settings in cfg.
func NewBuiltin(cfg types.ConvertConfig) *Builtin {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Builtin{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
	}
}

// Convert fetches the page and returns its Markdown rendering plus an
// outline export of titles, headings, and counts.
func (b *Builtin) Convert(ctx context.Context, rawURL string) (types.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.Document{}, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.client, req, 0)
	if err != nil {
		return types.Document{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Document{}, fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return types.Document{}, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	markdown := strings.TrimSpace(md.NewConverter("", true, nil).Convert(body))
	if markdown == "" {
		return types.Document{}, fmt.Errorf("page %s produced no content", rawURL)
	}

	structured, err := exportOutline(doc, body)
	if err != nil {
		// The Markdown rendering stands on its own; the artifact writer
		// substitutes an error marker for the missing structured form.
		structured = nil
	}

	return types.Document{Markdown: markdown, Structured: structured}, nil
}

// outline is the builtin backend's structured export: enough document shape
// for downstream consumers without a full layout model.
type outline struct {
	Title    string           `json:"title"`
	Headings []outlineHeading `json:"headings"`
	Links    int              `json:"links"`
	Words    int              `json:"words"`
}

type outlineHeading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

func exportOutline(doc *goquery.Document, body *goquery.Selection) (json.RawMessage, error) {
	o := outline{
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Headings: []outlineHeading{},
		Links:    body.Find("a[href]").Length(),
		Words:    len(strings.Fields(body.Text())),
	}

	body.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		level, err := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		if err != nil {
			return
		}
		o.Headings = append(o.Headings, outlineHeading{Level: level, Text: text})
	})

	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshaling outline: %w", err)
	}
	return data, nil
}
