package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragvault/ragvault/internal/model"
	"github.com/ragvault/ragvault/internal/pkg/dbutil"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":           doc.ID,
		"tenant_id":    doc.TenantID,
		"title":        doc.Title,
		"blob_key":     doc.BlobKey,
		"content_type": doc.ContentType,
		"status":       doc.Status,
		"ctime":        doc.Ctime,
		"mtime":        doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, tenantID, docID, status string, mtime int64) error {
	where := map[string]interface{}{
		"id":        docID,
		"tenant_id": tenantID,
	}
	update := map[string]interface{}{
		"status": status,
		"mtime":  mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, tenantID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":        docID,
		"tenant_id": tenantID,
	}
	return r.selectOne(ctx, where)
}

// GetAnyByID fetches without a tenant filter. Retrieval uses it to resolve
// citation titles for foreign chunks already admitted by policy.
func (r *DocumentRepo) GetAnyByID(ctx context.Context, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id": docID,
	}
	return r.selectOne(ctx, where)
}

func (r *DocumentRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns())
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var doc model.Document
	if err := scanDocument(row.Scan, &doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"tenant_id": tenantID,
		"_orderby":  "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns())
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := scanDocument(rows.Scan, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MarkStaleProcessingFailed flips documents stuck in processing since before
// the cutoff to failed. Returns the number of documents transitioned.
func (r *DocumentRepo) MarkStaleProcessingFailed(ctx context.Context, cutoff, now int64) (int64, error) {
	const query = `
		UPDATE documents SET status = $1, mtime = $2
		WHERE status = $3 AND mtime < $4
	`
	result, err := r.db.ExecContext(ctx, query, model.DocumentStatusFailed, now, model.DocumentStatusProcessing, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *DocumentRepo) ListFailedWithChunks(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT DISTINCT d.id
		FROM documents d
		JOIN document_chunks c ON c.document_id = d.id
		WHERE d.status = $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, model.DocumentStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func documentColumns() []string {
	return []string{"id", "tenant_id", "title", "blob_key", "content_type", "status", "ctime", "mtime"}
}

func scanDocument(scan func(...interface{}) error, doc *model.Document) error {
	return scan(&doc.ID, &doc.TenantID, &doc.Title, &doc.BlobKey, &doc.ContentType, &doc.Status, &doc.Ctime, &doc.Mtime)
}
