package model

const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	Title       string `json:"title"`
	BlobKey     string `json:"blob_key"`
	ContentType string `json:"content_type"`
	Status      string `json:"status"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
