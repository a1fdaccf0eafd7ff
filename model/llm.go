package model

import (
	"context"
	"fmt"

	"ragchat/config"
)

// Generator produces a completion for a prompt. Calls are stateless.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// NewGenerator builds the generator selected by cfg.Provider.
func NewGenerator(cfg config.ProviderConfig) (Generator, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	case ProviderOllama:
		return NewOllamaGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
