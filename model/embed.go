// Package model talks to embedding and text generation providers.
package model

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"ragchat/config"
)

// EmbedderInterface turns text into vectors. Every vector produced by one
// embedder has the same dimension.
type EmbedderInterface interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// NewEmbedder builds the embedder selected by cfg.Provider.
func NewEmbedder(cfg config.ProviderConfig) (EmbedderInterface, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg), nil
	case ProviderOllama:
		return NewOllamaEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

func httpClient(cfg config.ProviderConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// normalize scales vec to unit length and converts it to float32.
func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	for i, v := range vec {
		if norm == 0 {
			out[i] = float32(v)
			continue
		}
		out[i] = float32(v / norm)
	}
	return out
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
