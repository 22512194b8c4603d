package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/ragvault/ragvault/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) Create(ctx context.Context, chunk *model.DocumentChunk) error {
	const query = `
		INSERT INTO document_chunks (id, document_id, tenant_id, chunk_index, encrypted_text, plain_hash, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		chunk.ID,
		chunk.DocumentID,
		chunk.TenantID,
		chunk.ChunkIndex,
		chunk.EncryptedText,
		chunk.PlainHash,
		pgvector.NewVector(chunk.Embedding),
		chunk.Ctime,
	)
	return err
}

// ListReadyByTenants returns every chunk belonging to a ready document owned
// by one of the given tenants. Ordering is fixed (document ctime, then chunk
// index) so that equal similarity scores rank deterministically downstream.
func (r *ChunkRepo) ListReadyByTenants(ctx context.Context, tenantIDs []string) ([]model.DocumentChunk, error) {
	if len(tenantIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT c.id, c.document_id, c.tenant_id, c.chunk_index, c.encrypted_text, c.plain_hash, c.embedding, c.ctime
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.tenant_id = ANY($1) AND d.status = $2
		ORDER BY d.ctime, c.chunk_index
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(tenantIDs), model.DocumentStatusReady)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.DocumentChunk
	for rows.Next() {
		var chunk model.DocumentChunk
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.TenantID, &chunk.ChunkIndex,
			&chunk.EncryptedText, &chunk.PlainHash, &embedding, &chunk.Ctime); err != nil {
			return nil, err
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, docID string) (int64, error) {
	const query = `DELETE FROM document_chunks WHERE document_id = $1`
	result, err := r.db.ExecContext(ctx, query, docID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	const query = `SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, docID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
