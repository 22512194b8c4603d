package service

import (
	"context"
	"strings"

	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

// PolicyService decides whether a tenant may query beyond its own data. It
// is a pure decision function over current policy state: no side effects,
// identical inputs give identical answers.
type PolicyService struct {
	policies PolicyStore
}

func NewPolicyService(policies PolicyStore) *PolicyService {
	return &PolicyService{policies: policies}
}

// ResolveSharing returns whether the query may proceed and, when cross-tenant
// access is requested and granted, the set of foreign tenant ids in scope.
// Querying one's own data is always allowed.
func (s *PolicyService) ResolveSharing(ctx context.Context, tenantID string, includeShared bool, purposeTag string) (bool, []string, error) {
	if !includeShared {
		return true, nil, nil
	}
	policy, err := s.policies.GetByTenant(ctx, tenantID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	if strings.EqualFold(policy.Mode, model.SharingModeDisabled) {
		return false, nil, nil
	}
	if !containsFold(policy.PurposeTags, purposeTag) {
		return false, nil, nil
	}
	return true, policy.AllowedTenantIDs, nil
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
