package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

type PolicyRepo struct {
	db *sql.DB
}

func NewPolicyRepo(db *sql.DB) *PolicyRepo {
	return &PolicyRepo{db: db}
}

func (r *PolicyRepo) Upsert(ctx context.Context, policy *model.SharingPolicy) error {
	allowed, err := json.Marshal(policy.AllowedTenantIDs)
	if err != nil {
		return err
	}
	purposes, err := json.Marshal(policy.PurposeTags)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO sharing_policies (id, tenant_id, mode, allowed_tenant_ids, purpose_tags, mtime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE SET
			mode = EXCLUDED.mode,
			allowed_tenant_ids = EXCLUDED.allowed_tenant_ids,
			purpose_tags = EXCLUDED.purpose_tags,
			mtime = EXCLUDED.mtime
	`
	_, err = r.db.ExecContext(ctx, query,
		policy.ID,
		policy.TenantID,
		policy.Mode,
		string(allowed),
		string(purposes),
		policy.Mtime,
	)
	return err
}

func (r *PolicyRepo) GetByTenant(ctx context.Context, tenantID string) (*model.SharingPolicy, error) {
	const query = `
		SELECT id, tenant_id, mode, allowed_tenant_ids, purpose_tags, mtime
		FROM sharing_policies
		WHERE tenant_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, tenantID)
	var policy model.SharingPolicy
	var allowed, purposes string
	if err := row.Scan(&policy.ID, &policy.TenantID, &policy.Mode, &allowed, &purposes, &policy.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(allowed), &policy.AllowedTenantIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(purposes), &policy.PurposeTags); err != nil {
		return nil, err
	}
	return &policy, nil
}
