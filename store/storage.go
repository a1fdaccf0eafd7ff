// Package store persists documents with their embedded chunks and answers
// nearest-neighbour queries over them.
package store

import (
	"context"
	"errors"
	"fmt"

	"ragchat/config"
	"ragchat/types"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// VectorStorer is the persistent vector index. SaveDocument writes a
// document and all of its chunks atomically. Search returns at most k
// chunks ordered by descending cosine similarity, each with Score set.
type VectorStorer interface {
	SaveDocument(context.Context, types.Document) error
	Search(context.Context, []float32, int) ([]types.Chunk, error)
	Stats(context.Context) (types.StoreStats, error)
	Close() error
}

// New opens the store selected by cfg.Driver, creating its schema if
// needed.
func New(ctx context.Context, cfg config.StoreConfig) (VectorStorer, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return NewSQLiteStore(cfg.Dir)
	case DriverPostgres:
		s, err := NewPostgresStore(ctx, cfg.Postgres.DSN(), cfg.EmbeddingDim)
		if err != nil {
			return nil, err
		}
		if err := s.Init(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("init postgres schema: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", cfg.Driver)
	}
}

func checkDocument(doc types.Document) error {
	if len(doc.Chunks) == 0 {
		return errors.New("document has no chunks")
	}
	dim := len(doc.Chunks[0].Embedding)
	for _, c := range doc.Chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %d has no embedding", c.Index)
		}
		if len(c.Embedding) != dim {
			return fmt.Errorf("%w: chunk %d has %d, want %d", ErrDimensionMismatch, c.Index, len(c.Embedding), dim)
		}
	}
	return nil
}
