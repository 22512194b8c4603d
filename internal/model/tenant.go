package model

type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Region string `json:"region"`
	Ctime  int64  `json:"ctime"`
}

// TenantKey holds the tenant data key wrapped under the deployment master
// key. At most one record per tenant; the table enforces it with a unique
// constraint on tenant_id.
type TenantKey struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	WrappedKey string `json:"wrapped_key"`
	Ctime      int64  `json:"ctime"`
}
