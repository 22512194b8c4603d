package service

import (
	"context"

	"github.com/ragvault/ragvault/internal/model"
)

// The services only see the queries they need. Keeping these contracts
// narrow means a forgotten tenant filter shows up here instead of leaking
// through a general-purpose query surface.

type TenantStore interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	GetByID(ctx context.Context, tenantID string) (*model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	UpdateStatus(ctx context.Context, tenantID, docID, status string, mtime int64) error
	GetByID(ctx context.Context, tenantID, docID string) (*model.Document, error)
	GetAnyByID(ctx context.Context, docID string) (*model.Document, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset uint) ([]model.Document, error)
}

type ChunkStore interface {
	Create(ctx context.Context, chunk *model.DocumentChunk) error
	ListReadyByTenants(ctx context.Context, tenantIDs []string) ([]model.DocumentChunk, error)
}

type PolicyStore interface {
	Upsert(ctx context.Context, policy *model.SharingPolicy) error
	GetByTenant(ctx context.Context, tenantID string) (*model.SharingPolicy, error)
}

type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	GetByID(ctx context.Context, tenantID, convID string) (*model.Conversation, error)
	ListByUser(ctx context.Context, tenantID, userID string, limit, offset uint) ([]model.Conversation, error)
	AddMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, convID string) ([]model.Message, error)
}

type AuditStore interface {
	Create(ctx context.Context, audit *model.RetrievalAudit) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset uint) ([]model.RetrievalAudit, error)
}
