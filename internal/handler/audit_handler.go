package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragvault/ragvault/internal/pkg/response"
	"github.com/ragvault/ragvault/internal/service"
)

type AuditHandler struct {
	audits service.AuditStore
}

func NewAuditHandler(audits service.AuditStore) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List returns the caller tenant's retrieval audit trail, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	audits, err := h.audits.ListByTenant(c.Request.Context(), getTenantID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, audits)
}
