package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"ragchat/types"
)

// PostgresStore keeps chunks in a pgvector column. Concurrent writers are
// isolated by Postgres transactions.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

// NewPostgresStore makes sure the vector extension exists, then opens a pool
// whose connections know the vector type.
func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	if err := ensureVectorExtension(ctx, connStr); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
		dim:  dim,
	}, nil
}

func ensureVectorExtension(ctx context.Context, connStr string) error {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	return nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		format TEXT NOT NULL,
		source_path TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		doc_id UUID NOT NULL REFERENCES documents(id),
		page INT NOT NULL,
		position INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	`, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) SaveDocument(ctx context.Context, doc types.Document) error {
	if err := checkDocument(doc); err != nil {
		return err
	}
	if got := len(doc.Chunks[0].Embedding); got != p.dim {
		return fmt.Errorf("%w: got %d, column is vector(%d)", ErrDimensionMismatch, got, p.dim)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO documents (id, title, format, source_path, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Title, doc.Format, doc.SourcePath, doc.CreatedAt)
	for _, c := range doc.Chunks {
		batch.Queue(`INSERT INTO chunks (id, doc_id, page, position, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, doc.ID, c.Page, c.Index, c.Content, pgvector.NewVector(c.Embedding))
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert document rows: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert document rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit document: %w", err)
	}
	return nil
}

// postgresSearchSQL orders by distance alone so the HNSW index serves the
// query. The order of equally distant chunks is up to Postgres.
const postgresSearchSQL = `
	SELECT c.id, c.doc_id, d.source_path, c.page, c.position, c.content,
	       1 - (c.embedding <=> $1) AS score
	FROM chunks c
	JOIN documents d ON c.doc_id = d.id
	ORDER BY c.embedding <=> $1
	LIMIT $2
`

func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.Chunk, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if limit <= 0 {
		return nil, nil
	}
	if len(queryVec) != p.dim {
		return nil, fmt.Errorf("%w: query %d, column is vector(%d)", ErrDimensionMismatch, len(queryVec), p.dim)
	}

	rows, err := p.pool.Query(ctx, postgresSearchSQL, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var chunk types.Chunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.DocID,
			&chunk.Source,
			&chunk.Page,
			&chunk.Index,
			&chunk.Content,
			&chunk.Score); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) Stats(ctx context.Context) (types.StoreStats, error) {
	var st types.StoreStats
	err := p.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)`).Scan(&st.Documents, &st.Chunks)
	if err != nil {
		return types.StoreStats{}, err
	}
	return st, nil
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

var _ VectorStorer = (*PostgresStore)(nil)
