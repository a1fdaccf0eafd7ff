// Package rag ties loading, splitting, embedding and the vector store into
// the ingestion and retrieval pipelines.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragchat/loader"
	"ragchat/metrics"
	"ragchat/model"
	"ragchat/splitter"
	"ragchat/store"
	"ragchat/types"
)

const (
	// DefaultTopK is how many chunks back an answer.
	DefaultTopK = 3

	contextSeparator = "\n\n"
	defaultBatchSize = 64
)

type Service struct {
	store     store.VectorStorer
	embedder  model.EmbedderInterface
	loader    *loader.Loader
	splitter  *splitter.Splitter
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(st store.VectorStorer, embedder model.EmbedderInterface, sp *splitter.Splitter, batchSize int, logger *slog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		embedder:  embedder,
		loader:    loader.New(),
		splitter:  sp,
		batchSize: batchSize,
		logger:    logger,
	}
}

// SetMetrics makes the service record ingestion and retrieval outcomes.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// AddDocument loads the file at path, splits it, embeds every chunk and
// stores the result in one write. Nothing is stored when any step fails.
// Each call creates a new document, even for a file seen before.
func (s *Service) AddDocument(ctx context.Context, path string) (*types.Document, error) {
	name := filepath.Base(path)
	format, err := loader.FormatFromPath(name)
	if err != nil {
		s.metrics.IngestDone("", 0, err)
		return nil, err
	}

	doc, err := s.addDocument(ctx, format, path)
	if err != nil {
		s.metrics.IngestDone(format.String(), 0, err)
		return nil, err
	}
	s.metrics.IngestDone(doc.Format, len(doc.Chunks), nil)
	return doc, nil
}

func (s *Service) addDocument(ctx context.Context, format loader.Format, path string) (*types.Document, error) {
	name := filepath.Base(path)

	start := time.Now()
	spans, err := s.loader.Load(ctx, format, path)
	if err != nil {
		return nil, err
	}

	doc := types.Document{
		ID:         uuid.New(),
		Title:      loader.Title(name),
		Format:     format.String(),
		SourcePath: name,
		CreatedAt:  time.Now().UTC(),
	}

	var texts []string
	for _, span := range spans {
		for _, piece := range s.splitter.Split(span.Text) {
			doc.Chunks = append(doc.Chunks, types.Chunk{
				ID:      uuid.New(),
				DocID:   doc.ID,
				Source:  name,
				Page:    span.Page,
				Index:   len(doc.Chunks),
				Content: piece,
			})
			texts = append(texts, piece)
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", loader.ErrEmptyDocument, name)
	}

	vecs, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range doc.Chunks {
		doc.Chunks[i].Embedding = vecs[i]
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("document ingested",
		"file", name,
		"format", doc.Format,
		"chunks", len(doc.Chunks),
		"took", time.Since(start))
	return &doc, nil
}

func (s *Service) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		vecs, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Retrieve returns the DefaultTopK chunks most similar to question, best
// first.
func (s *Service) Retrieve(ctx context.Context, question string) ([]types.Chunk, error) {
	chunks, err := s.retrieve(ctx, question)
	s.metrics.RetrievalDone(err)
	return chunks, err
}

func (s *Service) retrieve(ctx context.Context, question string) ([]types.Chunk, error) {
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	chunks, err := s.store.Search(ctx, vec, DefaultTopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	for _, c := range chunks {
		s.logger.Debug("retrieved chunk", "source", c.Source, "page", c.Page, "index", c.Index, "score", c.Score)
	}
	return chunks, nil
}

// Query returns the context for question: the retrieved chunk texts joined
// by a blank line. It is empty when the store holds nothing.
func (s *Service) Query(ctx context.Context, question string) (string, error) {
	chunks, err := s.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, contextSeparator), nil
}

func (s *Service) Stats(ctx context.Context) (types.StoreStats, error) {
	return s.store.Stats(ctx)
}
