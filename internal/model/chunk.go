package model

// DocumentChunk carries the tenant id alongside the document id so that
// isolation checks never need a join back to the document.
type DocumentChunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	TenantID      string    `json:"tenant_id"`
	ChunkIndex    int       `json:"chunk_index"`
	EncryptedText string    `json:"-"`
	PlainHash     string    `json:"plain_hash"`
	Embedding     []float32 `json:"-"`
	Ctime         int64     `json:"ctime"`
}
