// Package splitter cuts text into overlapping, size-bounded chunks.
package splitter

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// separators are tried in order when looking for a natural cut.
var separators = []string{"\n\n", "\n", " "}

// Splitter is a sliding window over the runes of a text. Chunk sizes and
// overlaps are counted in characters, not bytes.
type Splitter struct {
	size    int
	overlap int
}

func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Splitter{size: size, overlap: overlap}
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunks of text in order. Every chunk is trimmed, non
// empty and at most Size characters long. Consecutive chunks share up to
// Overlap characters.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.cut(runes, start, end)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end == len(runes) {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cut returns the end of the window [start, end). It prefers the position
// just after the last separator found in the second half of the window and
// falls back to a hard cut at end.
func (s *Splitter) cut(runes []rune, start, end int) int {
	half := start + s.size/2
	window := string(runes[half:end])
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return half + len([]rune(window[:i])) + len([]rune(sep))
		}
	}
	return end
}
