package types

import (
	"time"

	"github.com/google/uuid"
)

type Chunk struct {
	ID        uuid.UUID
	DocID     uuid.UUID
	Source    string // originating file name
	Page      int    // 1-based page for paged formats, 0 otherwise
	Index     int    // position inside the document
	Content   string
	Embedding []float32
	Score     float64 // cosine similarity to the query, set by Search only
}

type Document struct {
	ID         uuid.UUID
	Title      string
	Format     string // pdf, md or txt
	SourcePath string // file name the document was uploaded as
	CreatedAt  time.Time
	Chunks     []Chunk
}

// StoreStats is a snapshot of what the vector store holds.
type StoreStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}
