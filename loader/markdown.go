package loader

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	mdCodeFence    = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading      = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	mdBlockquote   = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	mdRule         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	mdListMarker   = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	mdNumberedList = regexp.MustCompile(`(?m)^([ \t]*)\d+\.[ \t]+`)
	mdBold         = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	mdItalic       = regexp.MustCompile(`\*([^*\n]+)\*`)
	mdUnderBold    = regexp.MustCompile(`\b__([^_\n]+)__\b`)
	mdUnderItalic  = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	mdHTMLTag      = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	mdManyNewlines = regexp.MustCompile(`\n{3,}`)
)

func loadMarkdown(path string) ([]Span, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []Span{{Text: StripMarkdown(string(data))}}, nil
}

// StripMarkdown reduces Markdown to the text a reader would see. Code
// blocks are dropped, inline code and link labels are kept.
func StripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = mdCodeFence.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdRule.ReplaceAllString(content, "")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdListMarker.ReplaceAllString(content, "$1")
	content = mdNumberedList.ReplaceAllString(content, "$1")
	content = mdBold.ReplaceAllString(content, "$1")
	content = mdItalic.ReplaceAllString(content, "$1")
	content = mdUnderBold.ReplaceAllString(content, "$1")
	content = mdUnderItalic.ReplaceAllString(content, "$1")
	content = mdHTMLTag.ReplaceAllString(content, "")
	content = mdManyNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
