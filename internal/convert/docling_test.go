// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntime implements container.Runtime with canned behavior.
type fakeRuntime struct {
	imageErr error
	output   string
	runErr   error
	gotArgs  []string
}

func (f *fakeRuntime) Name() string                   { return "docker" }
func (f *fakeRuntime) Available() bool                { return true }
func (f *fakeRuntime) ImageExists(image string) error { return f.imageErr }

func (f *fakeRuntime) Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.gotArgs = args
	if f.runErr != nil {
		return f.runErr
	}
	_, err := stdout.Write([]byte(f.output))
	return err
}

func TestNewDoclingChecksImage(t *testing.T) {
	_, err := NewDocling(&fakeRuntime{imageErr: errors.New("no such image")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docling image not available")

	_, err = NewDocling(&fakeRuntime{})
	require.NoError(t, err)
}

func TestDoclingConvert(t *testing.T) {
	rt := &fakeRuntime{output: `{"markdown": "# Page\n\nBody.", "document": {"name": "Page"}}`}
	d, err := NewDocling(rt)
	require.NoError(t, err)

	doc, err := d.Convert(context.Background(), "https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/page"}, rt.gotArgs)
	assert.Equal(t, "# Page\n\nBody.", doc.Markdown)
	assert.JSONEq(t, `{"name": "Page"}`, string(doc.Structured))
}

func TestDoclingConvertErrors(t *testing.T) {
	tests := []struct {
		name    string
		rt      *fakeRuntime
		wantMsg string
	}{
		{
			name:    "container failure",
			rt:      &fakeRuntime{runErr: errors.New("exit status 1")},
			wantMsg: "converting",
		},
		{
			name:    "malformed output",
			rt:      &fakeRuntime{output: "not json"},
			wantMsg: "parsing docling output",
		},
		{
			name:    "missing markdown",
			rt:      &fakeRuntime{output: `{"document": {}}`},
			wantMsg: "no markdown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDocling(tt.rt)
			require.NoError(t, err)

			_, err = d.Convert(context.Background(), "https://example.com/page")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
