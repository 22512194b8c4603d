package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragvault/ragvault/internal/model"
	"github.com/ragvault/ragvault/internal/pkg/dbutil"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

type TenantRepo struct {
	db *sql.DB
}

func NewTenantRepo(db *sql.DB) *TenantRepo {
	return &TenantRepo{db: db}
}

func (r *TenantRepo) Create(ctx context.Context, tenant *model.Tenant) error {
	data := map[string]interface{}{
		"id":     tenant.ID,
		"name":   tenant.Name,
		"slug":   tenant.Slug,
		"region": tenant.Region,
		"ctime":  tenant.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("tenants", []map[string]interface{}{data})
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

func (r *TenantRepo) GetByID(ctx context.Context, tenantID string) (*model.Tenant, error) {
	where := map[string]interface{}{
		"id": tenantID,
	}
	sqlStr, args, err := builder.BuildSelect("tenants", where, []string{"id", "name", "slug", "region", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var tenant model.Tenant
	if err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Region, &tenant.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepo) List(ctx context.Context) ([]model.Tenant, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("tenants", where, []string{"id", "name", "slug", "region", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []model.Tenant
	for rows.Next() {
		var tenant model.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Region, &tenant.Ctime); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
