package model

const (
	SharingModeDisabled = "Disabled"
	SharingModeExplicit = "Explicit"
)

// SharingPolicy controls whether a tenant's queries may reach beyond its own
// data. Mode comparison is case-insensitive; purpose tags match
// case-insensitively as well.
type SharingPolicy struct {
	ID               string   `json:"id"`
	TenantID         string   `json:"tenant_id"`
	Mode             string   `json:"mode"`
	AllowedTenantIDs []string `json:"allowed_tenant_ids"`
	PurposeTags      []string `json:"purpose_tags"`
	Mtime            int64    `json:"mtime"`
}
