package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ragvault/ragvault/internal/attest"
	"github.com/ragvault/ragvault/internal/keycustody"
	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

// In-memory fakes for the store contracts. They hold the same invariants the
// real repos do (tenant scoping, unique tenant key, ready-only chunk listing)
// so service tests exercise real behavior, not mock choreography.

type memTenantStore struct {
	mu      sync.Mutex
	tenants map[string]*model.Tenant
}

func newMemTenantStore() *memTenantStore {
	return &memTenantStore{tenants: map[string]*model.Tenant{}}
}

func (s *memTenantStore) Create(ctx context.Context, tenant *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}

func (s *memTenantStore) GetByID(ctx context.Context, tenantID string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *tenant
	return &copied, nil
}

func (s *memTenantStore) List(ctx context.Context) ([]model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]model.Tenant, 0, len(s.tenants))
	for _, tenant := range s.tenants {
		result = append(result, *tenant)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memDocumentStore struct {
	mu   sync.Mutex
	docs map[string]*model.Document
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{docs: map[string]*model.Document{}}
}

func (s *memDocumentStore) Create(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *memDocumentStore) UpdateStatus(ctx context.Context, tenantID, docID, status string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return appErr.ErrNotFound
	}
	doc.Status = status
	doc.Mtime = mtime
	return nil
}

func (s *memDocumentStore) GetByID(ctx context.Context, tenantID, docID string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return nil, appErr.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *memDocumentStore) GetAnyByID(ctx context.Context, docID string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *memDocumentStore) ListByTenant(ctx context.Context, tenantID string, limit, offset uint) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Document
	for _, doc := range s.docs {
		if doc.TenantID == tenantID {
			result = append(result, *doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ctime > result[j].Ctime })
	return result, nil
}

type memChunkStore struct {
	mu     sync.Mutex
	chunks []model.DocumentChunk
	docs   *memDocumentStore
}

func newMemChunkStore(docs *memDocumentStore) *memChunkStore {
	return &memChunkStore{docs: docs}
}

func (s *memChunkStore) Create(ctx context.Context, chunk *model.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, *chunk)
	return nil
}

func (s *memChunkStore) ListReadyByTenants(ctx context.Context, tenantIDs []string) ([]model.DocumentChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := map[string]struct{}{}
	for _, id := range tenantIDs {
		allowed[id] = struct{}{}
	}
	var result []model.DocumentChunk
	for _, chunk := range s.chunks {
		if _, ok := allowed[chunk.TenantID]; !ok {
			continue
		}
		doc, err := s.docs.GetAnyByID(ctx, chunk.DocumentID)
		if err != nil || doc.Status != model.DocumentStatusReady {
			continue
		}
		result = append(result, chunk)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DocumentID != result[j].DocumentID {
			return result[i].Ctime < result[j].Ctime
		}
		return result[i].ChunkIndex < result[j].ChunkIndex
	})
	return result, nil
}

type memPolicyStore struct {
	mu       sync.Mutex
	policies map[string]*model.SharingPolicy
}

func newMemPolicyStore() *memPolicyStore {
	return &memPolicyStore{policies: map[string]*model.SharingPolicy{}}
}

func (s *memPolicyStore) Upsert(ctx context.Context, policy *model.SharingPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *policy
	s.policies[policy.TenantID] = &copied
	return nil
}

func (s *memPolicyStore) GetByTenant(ctx context.Context, tenantID string) (*model.SharingPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[tenantID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *policy
	return &copied, nil
}

type memConversationStore struct {
	mu       sync.Mutex
	convs    map[string]*model.Conversation
	messages []model.Message
}

func newMemConversationStore() *memConversationStore {
	return &memConversationStore{convs: map[string]*model.Conversation{}}
}

func (s *memConversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *conv
	s.convs[conv.ID] = &copied
	return nil
}

func (s *memConversationStore) GetByID(ctx context.Context, tenantID, convID string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok || conv.TenantID != tenantID {
		return nil, appErr.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (s *memConversationStore) ListByUser(ctx context.Context, tenantID, userID string, limit, offset uint) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Conversation
	for _, conv := range s.convs {
		if conv.TenantID == tenantID && conv.UserID == userID {
			result = append(result, *conv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ctime > result[j].Ctime })
	return result, nil
}

func (s *memConversationStore) AddMessage(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memConversationStore) ListMessages(ctx context.Context, convID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Message
	for _, msg := range s.messages {
		if msg.ConversationID == convID {
			result = append(result, msg)
		}
	}
	return result, nil
}

type memAuditStore struct {
	mu     sync.Mutex
	audits []model.RetrievalAudit
}

func newMemAuditStore() *memAuditStore {
	return &memAuditStore{}
}

func (s *memAuditStore) Create(ctx context.Context, audit *model.RetrievalAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, *audit)
	return nil
}

func (s *memAuditStore) ListByTenant(ctx context.Context, tenantID string, limit, offset uint) ([]model.RetrievalAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.RetrievalAudit
	for _, audit := range s.audits {
		if audit.TenantID == tenantID {
			result = append(result, audit)
		}
	}
	return result, nil
}

type memKeyStore struct {
	mu   sync.Mutex
	keys map[string]*model.TenantKey
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{keys: map[string]*model.TenantKey{}}
}

func (s *memKeyStore) Create(ctx context.Context, key *model.TenantKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.TenantID]; ok {
		return appErr.ErrConflict
	}
	copied := *key
	s.keys[key.TenantID] = &copied
	return nil
}

func (s *memKeyStore) GetByTenant(ctx context.Context, tenantID string) (*model.TenantKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.keys[tenantID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (s *memBlobStore) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	if s.fail {
		return fmt.Errorf("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// fakeEmbedder produces a deterministic vector per input so ranking in tests
// is predictable. Vectors map to fixed points unless overridden.
type fakeEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
	calls   int
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim, vectors: map[string][]float32{}}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	vec := make([]float32, f.dim)
	for i, r := range text {
		vec[i%f.dim] += float32(r % 17)
	}
	return vec, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeGenerator struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type allowAttest struct{}

func (allowAttest) Name() string                        { return "allow" }
func (allowAttest) IsAttested(ctx context.Context) bool { return true }

type denyAttest struct{}

func (denyAttest) Name() string                        { return "deny" }
func (denyAttest) IsAttested(ctx context.Context) bool { return false }

func newTestScopeFactory(requireAttestation bool, provider attest.Provider) *keycustody.ScopeFactory {
	custodian, err := keycustody.NewCustodian(newMemKeyStore(), provider, requireAttestation, []byte("service-test-master"))
	if err != nil {
		panic(err)
	}
	return keycustody.NewScopeFactory(custodian)
}
