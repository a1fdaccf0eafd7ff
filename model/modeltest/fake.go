// Package modeltest provides offline embedders and generators for tests.
package modeltest

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
)

const Dim = 64

var word = regexp.MustCompile(`\p{L}+|\p{N}+`)

// HashEmbedder maps text to a bag-of-words vector by hashing each
// lowercased word into one of Dim buckets. Texts sharing words end up
// close to each other.
type HashEmbedder struct {
	// Err, when set, is returned by every call.
	Err error

	mu    sync.Mutex
	calls int
}

func (e *HashEmbedder) ModelName() string { return "hash-bow" }

func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	return Vector(text), nil
}

func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Vector is the embedding HashEmbedder produces for text.
func Vector(text string) []float32 {
	v := make([]float32, Dim)
	for _, w := range word.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%Dim]++
	}
	// Keep the vector non-zero so cosine similarity stays defined.
	v[Dim-1] += 0.01
	return v
}

// Generator records the last prompt and returns a fixed answer or error.
type Generator struct {
	Answer string
	Err    error

	mu     sync.Mutex
	prompt string
}

func (g *Generator) ModelName() string { return "static" }

func (g *Generator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompt = prompt
	g.mu.Unlock()

	if g.Err != nil {
		return "", g.Err
	}
	return g.Answer, nil
}

func (g *Generator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt
}
