package service

import (
	"context"
	"strings"

	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
	"github.com/ragvault/ragvault/internal/pkg/timeutil"
)

type TenantService struct {
	tenants  TenantStore
	policies PolicyStore
}

func NewTenantService(tenants TenantStore, policies PolicyStore) *TenantService {
	return &TenantService{tenants: tenants, policies: policies}
}

type TenantCreateInput struct {
	Name   string
	Slug   string
	Region string
}

func (s *TenantService) Create(ctx context.Context, in TenantCreateInput) (*model.Tenant, error) {
	if in.Name == "" || in.Slug == "" {
		return nil, appErr.ErrInvalid
	}
	tenant := &model.Tenant{
		ID:     newID(),
		Name:   in.Name,
		Slug:   strings.ToLower(strings.TrimSpace(in.Slug)),
		Region: in.Region,
		Ctime:  timeutil.NowUnix(),
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) Get(ctx context.Context, tenantID string) (*model.Tenant, error) {
	return s.tenants.GetByID(ctx, tenantID)
}

func (s *TenantService) List(ctx context.Context) ([]model.Tenant, error) {
	return s.tenants.List(ctx)
}

type PolicyInput struct {
	Mode             string
	AllowedTenantIDs []string
	PurposeTags      []string
}

// SetPolicy normalizes the sharing mode to its canonical literal before
// persisting so stored records always read "Disabled" or "Explicit".
func (s *TenantService) SetPolicy(ctx context.Context, tenantID string, in PolicyInput) (*model.SharingPolicy, error) {
	var mode string
	switch {
	case strings.EqualFold(in.Mode, model.SharingModeDisabled):
		mode = model.SharingModeDisabled
	case strings.EqualFold(in.Mode, model.SharingModeExplicit):
		mode = model.SharingModeExplicit
	default:
		return nil, appErr.ErrInvalid
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	policy := &model.SharingPolicy{
		ID:               newID(),
		TenantID:         tenantID,
		Mode:             mode,
		AllowedTenantIDs: in.AllowedTenantIDs,
		PurposeTags:      in.PurposeTags,
		Mtime:            timeutil.NowUnix(),
	}
	if policy.AllowedTenantIDs == nil {
		policy.AllowedTenantIDs = []string{}
	}
	if policy.PurposeTags == nil {
		policy.PurposeTags = []string{}
	}
	if err := s.policies.Upsert(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *TenantService) GetPolicy(ctx context.Context, tenantID string) (*model.SharingPolicy, error) {
	return s.policies.GetByTenant(ctx, tenantID)
}
