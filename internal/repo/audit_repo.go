package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ragvault/ragvault/internal/model"
)

// AuditRepo is append-only. There are deliberately no update or delete
// methods on retrieval audits.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Create(ctx context.Context, audit *model.RetrievalAudit) error {
	chunkIDs, err := json.Marshal(audit.ChunkIDs)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO retrieval_audits (id, tenant_id, user_id, query, scope, chunk_ids, purpose_tag, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		audit.ID,
		audit.TenantID,
		audit.UserID,
		audit.Query,
		audit.Scope,
		string(chunkIDs),
		audit.PurposeTag,
		audit.Ctime,
	)
	return err
}

func (r *AuditRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset uint) ([]model.RetrievalAudit, error) {
	const query = `
		SELECT id, tenant_id, user_id, query, scope, chunk_ids, purpose_tag, ctime
		FROM retrieval_audits
		WHERE tenant_id = $1
		ORDER BY ctime DESC
		LIMIT $2 OFFSET $3
	`
	if limit == 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var audits []model.RetrievalAudit
	for rows.Next() {
		var audit model.RetrievalAudit
		var chunkIDs string
		if err := rows.Scan(&audit.ID, &audit.TenantID, &audit.UserID, &audit.Query,
			&audit.Scope, &chunkIDs, &audit.PurposeTag, &audit.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(chunkIDs), &audit.ChunkIDs); err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
