package model

const (
	RetrievalScopeTenantOnly  = "TenantOnly"
	RetrievalScopeCrossTenant = "CrossTenant"
)

// RetrievalAudit is write-once. The engine never updates or deletes a record
// after it is persisted.
type RetrievalAudit struct {
	ID         string   `json:"id"`
	TenantID   string   `json:"tenant_id"`
	UserID     string   `json:"user_id"`
	Query      string   `json:"query"`
	Scope      string   `json:"scope"`
	ChunkIDs   []string `json:"chunk_ids"`
	PurposeTag string   `json:"purpose_tag"`
	Ctime      int64    `json:"ctime"`
}
