// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/page-mill/pkg/types"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Course Intro</title><style>body { color: red }</style></head>
<body>
  <script>console.log("tracking")</script>
  <h1>Getting Started</h1>
  <p>Welcome to the course.</p>
  <h2>Prerequisites</h2>
  <p>Install the tools listed <a href="/setup">here</a>.</p>
  <noscript>enable javascript</noscript>
</body>
</html>`

func TestBuiltinConvert(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(samplePage))
	}))
	defer ts.Close()

	b := NewBuiltin(types.ConvertConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "page-mill/test"},
	})
	doc, err := b.Convert(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "page-mill/test", gotUA)

	assert.Contains(t, doc.Markdown, "# Getting Started")
	assert.Contains(t, doc.Markdown, "## Prerequisites")
	assert.Contains(t, doc.Markdown, "Welcome to the course.")
	assert.NotContains(t, doc.Markdown, "tracking", "script content must be stripped")
	assert.NotContains(t, doc.Markdown, "color: red", "style content must be stripped")
	assert.NotContains(t, doc.Markdown, "enable javascript", "noscript content must be stripped")
}

func TestBuiltinConvertOutline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer ts.Close()

	b := NewBuiltin(types.ConvertConfig{})
	doc, err := b.Convert(context.Background(), ts.URL)
	require.NoError(t, err)
	require.NotNil(t, doc.Structured)

	var o outline
	require.NoError(t, json.Unmarshal(doc.Structured, &o))

	assert.Equal(t, "Course Intro", o.Title)
	require.Len(t, o.Headings, 2)
	assert.Equal(t, outlineHeading{Level: 1, Text: "Getting Started"}, o.Headings[0])
	assert.Equal(t, outlineHeading{Level: 2, Text: "Prerequisites"}, o.Headings[1])
	assert.Equal(t, 1, o.Links)
	assert.Greater(t, o.Words, 5)
}

func TestBuiltinConvertHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	b := NewBuiltin(types.ConvertConfig{})
	_, err := b.Convert(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestBuiltinConvertEmptyPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><script>only scripts</script></body></html>"))
	}))
	defer ts.Close()

	b := NewBuiltin(types.ConvertConfig{})
	_, err := b.Convert(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestBuiltinConvertNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	b := NewBuiltin(types.ConvertConfig{})
	_, err := b.Convert(context.Background(), url)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "fetching"))
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(types.ConvertConfig{Backend: types.BackendBuiltin})
	require.NoError(t, err)
	assert.IsType(t, &Builtin{}, c)

	// Empty backend defaults to builtin.
	c, err = New(types.ConvertConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Builtin{}, c)

	_, err = New(types.ConvertConfig{Backend: "pandoc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown conversion backend")
}
