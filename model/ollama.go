package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ragchat/config"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaEmbedder creates embeddings through the Ollama REST API. Vectors
// are L2 normalised.
type OllamaEmbedder struct {
	apiURL string
	model  string
	client *http.Client
}

type OllamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type OllamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func NewOllamaEmbedder(cfg config.ProviderConfig) *OllamaEmbedder {
	return &OllamaEmbedder{
		apiURL: ollamaEndpoint(cfg.BaseURL, "/api/embeddings"),
		model:  cfg.Model,
		client: httpClient(cfg),
	}
}

func (e *OllamaEmbedder) ModelName() string { return e.model }

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var ollamaResp OllamaEmbeddingResponse
	err := postJSON(ctx, e.client, e.apiURL, OllamaEmbeddingRequest{Model: e.model, Prompt: text}, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&ollamaResp)
	})
	if err != nil {
		return nil, err
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, errors.New("ollama returned an empty embedding")
	}
	return normalize(ollamaResp.Embedding), nil
}

// EmbedBatch embeds texts one request at a time; the embeddings endpoint
// takes a single prompt.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}

// OllamaGenerator answers prompts with /api/generate, collecting the
// streamed response until the model reports done.
type OllamaGenerator struct {
	apiURL string
	model  string
	client *http.Client
}

type OllamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type OllamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaGenerator(cfg config.ProviderConfig) *OllamaGenerator {
	return &OllamaGenerator{
		apiURL: ollamaEndpoint(cfg.BaseURL, "/api/generate"),
		model:  cfg.Model,
		client: httpClient(cfg),
	}
}

func (g *OllamaGenerator) ModelName() string { return g.model }

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var b strings.Builder
	err := postJSON(ctx, g.client, g.apiURL, OllamaGenerateRequest{Model: g.model, Prompt: prompt}, func(body io.Reader) error {
		decoder := json.NewDecoder(body)
		for {
			var chunk OllamaGenerateResponse
			if err := decoder.Decode(&chunk); err == io.EOF {
				return nil
			} else if err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			if chunk.Error != "" {
				return fmt.Errorf("ollama: %s", chunk.Error)
			}

			b.WriteString(chunk.Response)

			if chunk.Done {
				return nil
			}
		}
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// ollamaEndpoint accepts either the server root or the full endpoint URL.
func ollamaEndpoint(baseURL, path string) string {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(baseURL, path) {
		return baseURL
	}
	return baseURL + path
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any, decode func(io.Reader) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return decode(resp.Body)
}
