package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragvault/ragvault/internal/pkg/errcode"
	"github.com/ragvault/ragvault/internal/pkg/response"
	"github.com/ragvault/ragvault/internal/service"
)

type TenantHandler struct {
	tenants *service.TenantService
}

func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

type tenantRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Region string `json:"region"`
}

func (h *TenantHandler) Create(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	tenant, err := h.tenants.Create(c.Request.Context(), service.TenantCreateInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Region: req.Region,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tenant)
}

func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.tenants.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tenants)
}

type policyRequest struct {
	Mode             string   `json:"mode"`
	AllowedTenantIDs []string `json:"allowed_tenant_ids"`
	PurposeTags      []string `json:"purpose_tags"`
}

// SetPolicy writes the sharing policy of the caller's own tenant. There is
// no way to edit another tenant's policy through the API.
func (h *TenantHandler) SetPolicy(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	policy, err := h.tenants.SetPolicy(c.Request.Context(), getTenantID(c), service.PolicyInput{
		Mode:             req.Mode,
		AllowedTenantIDs: req.AllowedTenantIDs,
		PurposeTags:      req.PurposeTags,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, policy)
}

func (h *TenantHandler) GetPolicy(c *gin.Context) {
	policy, err := h.tenants.GetPolicy(c.Request.Context(), getTenantID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, policy)
}
