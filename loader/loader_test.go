package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/loader/loadertest"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "notes.txt", want: FormatText},
		{path: "README.md", want: FormatMarkdown},
		{path: "report.pdf", want: FormatPDF},
		{path: "REPORT.PDF", want: FormatPDF},
		{path: "dir/Notes.Md", want: FormatMarkdown},
		{path: "data.csv", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFileType)
				assert.Contains(t, err.Error(), tt.path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "txt", FormatText.String())
	assert.Equal(t, "md", FormatMarkdown.String())
	assert.Equal(t, "pdf", FormatPDF.String())
	assert.Equal(t, "unknown", Format(0).String())
}

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("The capital of France is Paris."), 0o644))

	spans, err := New().Load(context.Background(), FormatText, path)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "The capital of France is Paris.", spans[0].Text)
	assert.Zero(t, spans[0].Page)
}

func TestLoadEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte(" \n\t "), 0o644))

	_, err := New().Load(context.Background(), FormatText, path)
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), FormatText, filepath.Join(t.TempDir(), "nope.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Load(ctx, FormatText, "whatever.txt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadMarkdown(t *testing.T) {
	md := "# Guide\n\nSome **bold** and *italic* text with a [link](http://example.com).\n\n" +
		"```go\nfmt.Println(\"hidden\")\n```\n\n- first item\n- second item\n\n> quoted line\n"
	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte(md), 0o644))

	spans, err := New().Load(context.Background(), FormatMarkdown, path)
	require.NoError(t, err)
	require.Len(t, spans, 1)

	text := spans[0].Text
	assert.True(t, strings.HasPrefix(text, "Guide"))
	assert.Contains(t, text, "Some bold and italic text with a link.")
	assert.Contains(t, text, "first item\nsecond item")
	assert.Contains(t, text, "quoted line")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "http://example.com")
	assert.NotContains(t, text, "#")
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "heading", in: "## Setup", want: "Setup"},
		{name: "image dropped", in: "see ![diagram](img.png) here", want: "see  here"},
		{name: "inline code kept", in: "run `go test` now", want: "run go test now"},
		{name: "numbered list", in: "1. one\n2. two", want: "one\ntwo"},
		{name: "underscore emphasis", in: "__strong__ and _soft_", want: "strong and soft"},
		{name: "snake case untouched", in: "use max_chunk_size", want: "use max_chunk_size"},
		{name: "html tags", in: "<b>bold</b> text", want: "bold text"},
		{name: "rule", in: "above\n\n---\n\nbelow", want: "above\n\nbelow"},
		{name: "crlf", in: "a\r\nb", want: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdown(tt.in))
		})
	}
}

func TestLoadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	loadertest.WritePDF(t, path,
		"Page one talks about apples.",
		"",
		"Page three talks about oranges.",
	)

	spans, err := New().Load(context.Background(), FormatPDF, path)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, 1, spans[0].Page)
	assert.Contains(t, spans[0].Text, "apples")
	assert.Equal(t, 3, spans[1].Page)
	assert.Contains(t, spans[1].Text, "oranges")
}

func TestLoadInvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	_, err := New().Load(context.Background(), FormatPDF, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pdf")
}

func TestValidatePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "three.pdf")
	loadertest.WritePDF(t, path, "a", "b", "c")

	pages, err := ValidatePDF(path)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "quarterly report 2024", Title("/tmp/x/quarterly_report-2024.pdf"))
	assert.Equal(t, "notes", Title("notes.txt"))
}
