package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"ragchat/model"
)

const promptTemplate = `You are a document assistant. Answer the question based ONLY on the provided context.
If the answer is not in the context, say you don't know based on the provided documents.

Context: %s
Question: %s`

// BuildPrompt fills the fixed answering template.
func BuildPrompt(docContext, question string) string {
	return fmt.Sprintf(promptTemplate, docContext, question)
}

// Agent turns a retrieved context and a question into an answer with one
// generator call.
type Agent struct {
	generator model.Generator
	logger    *slog.Logger

	// CountTokens sizes the prompt for logging only.
	CountTokens func(string) (int, error)
}

func NewAgent(generator model.Generator, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		generator:   generator,
		logger:      logger,
		CountTokens: CountTokens,
	}
}

// GenerateAnswer returns the generator's answer. Generator errors are
// returned as they are.
func (a *Agent) GenerateAnswer(ctx context.Context, docContext, question string) (string, error) {
	prompt := BuildPrompt(docContext, question)

	attrs := []any{"model", a.generator.ModelName(), "symbols", len(prompt)}
	if a.CountTokens != nil {
		if count, err := a.CountTokens(prompt); err != nil {
			a.logger.Warn("failed to count prompt tokens", "error", err)
		} else {
			attrs = append(attrs, "tokens", count)
		}
	}
	a.logger.Info("sending prompt to llm", attrs...)

	start := time.Now()
	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	a.logger.Info("llm answered", "took", time.Since(start))
	return answer, nil
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

// CountTokens counts tokens with the cl100k_base encoding. The encoding is
// loaded once per process.
func CountTokens(text string) (int, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encodingErr != nil {
		return 0, encodingErr
	}
	return len(encoding.Encode(text, nil, nil)), nil
}
