package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragvault/ragvault/internal/model"
	"github.com/ragvault/ragvault/internal/pkg/dbutil"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

type TenantKeyRepo struct {
	db *sql.DB
}

func NewTenantKeyRepo(db *sql.DB) *TenantKeyRepo {
	return &TenantKeyRepo{db: db}
}

// Create relies on the unique constraint on tenant_id: a concurrent first
// request for the same tenant gets ErrConflict and must re-read instead of
// producing a second key record.
func (r *TenantKeyRepo) Create(ctx context.Context, key *model.TenantKey) error {
	data := map[string]interface{}{
		"id":          key.ID,
		"tenant_id":   key.TenantID,
		"wrapped_key": key.WrappedKey,
		"ctime":       key.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("tenant_keys", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *TenantKeyRepo) GetByTenant(ctx context.Context, tenantID string) (*model.TenantKey, error) {
	where := map[string]interface{}{
		"tenant_id": tenantID,
	}
	sqlStr, args, err := builder.BuildSelect("tenant_keys", where, []string{"id", "tenant_id", "wrapped_key", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var key model.TenantKey
	if err := row.Scan(&key.ID, &key.TenantID, &key.WrappedKey, &key.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}
