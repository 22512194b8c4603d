package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragvault/ragvault/internal/ai"
	"github.com/ragvault/ragvault/internal/keycustody"
	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
	"github.com/ragvault/ragvault/internal/pkg/timeutil"
)

const (
	topK            = 5
	maxTitleRunes   = 40
	embedTaskQuery  = "RETRIEVAL_QUERY"
	denialMessage   = "Cross-tenant sharing is not permitted for this purpose tag."
	promptTemplate  = "User question: %s\nContext:\n%s\nAnswer:"
	queryCacheSize  = 4096
	queryCacheTTL   = 30 * time.Minute
)

type Citation struct {
	DocumentTitle string `json:"document_title"`
	ChunkID       string `json:"chunk_id"`
	DocumentID    string `json:"document_id"`
	TenantID      string `json:"tenant_id"`
}

type ChatInput struct {
	TenantID       string
	UserID         string
	Query          string
	IncludeShared  bool
	PurposeTag     string
	ConversationID string
}

type ChatOutput struct {
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	ConversationID string     `json:"conversation_id"`
	Denied         bool       `json:"denied"`
}

// RetrievalService answers a query over the caller's chunks plus whatever
// sharing policy admits. Decrypted chunk text lives only for the duration of
// one request; nothing plaintext is ever written back.
type RetrievalService struct {
	docs       DocumentStore
	chunks     ChunkStore
	convs      ConversationStore
	audits     AuditStore
	policy     *PolicyService
	embedder   ai.IEmbedder
	generator  ai.IGenerator
	scopes     *keycustody.ScopeFactory
	queryCache *expirable.LRU[string, []float32]
}

func NewRetrievalService(
	docs DocumentStore,
	chunks ChunkStore,
	convs ConversationStore,
	audits AuditStore,
	policy *PolicyService,
	embedder ai.IEmbedder,
	generator ai.IGenerator,
	scopes *keycustody.ScopeFactory,
) *RetrievalService {
	return &RetrievalService{
		docs:       docs,
		chunks:     chunks,
		convs:      convs,
		audits:     audits,
		policy:     policy,
		embedder:   embedder,
		generator:  generator,
		scopes:     scopes,
		queryCache: expirable.NewLRU[string, []float32](queryCacheSize, nil, queryCacheTTL),
	}
}

func (s *RetrievalService) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if in.TenantID == "" || in.UserID == "" || strings.TrimSpace(in.Query) == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("tenant_id", in.TenantID),
		zap.String("user_id", in.UserID),
	)

	queryEmbedding, err := s.embedQuery(ctx, in.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}

	allowed, foreignTenants, err := s.policy.ResolveSharing(ctx, in.TenantID, in.IncludeShared, in.PurposeTag)
	if err != nil {
		return nil, err
	}
	if !allowed {
		// Denial is a normal outcome, not an error. No context is
		// retrieved and no conversation state is written.
		conversationID := in.ConversationID
		if conversationID == "" {
			conversationID = newID()
		}
		logger.Info("cross-tenant sharing denied", zap.String("purpose_tag", in.PurposeTag))
		return &ChatOutput{
			Answer:         denialMessage,
			Citations:      []Citation{},
			ConversationID: conversationID,
			Denied:         true,
		}, nil
	}

	searchScope := dedupe(append([]string{in.TenantID}, foreignTenants...))
	chunks, err := s.chunks.ListReadyByTenants(ctx, searchScope)
	if err != nil {
		return nil, err
	}
	selected := rankTopK(queryEmbedding, chunks, topK)

	citations := make([]Citation, 0, len(selected))
	var contextBlock strings.Builder
	scopes := map[string]*keycustody.ConfidentialScope{}
	defer func() {
		for _, scope := range scopes {
			scope.Release()
		}
	}()
	docTitles := map[string]string{}
	for _, chunk := range selected {
		scope, ok := scopes[chunk.TenantID]
		if !ok {
			scope, err = s.scopes.Acquire(ctx, chunk.TenantID)
			if err != nil {
				return nil, err
			}
			scopes[chunk.TenantID] = scope
		}
		text, err := scope.DecryptText(chunk.EncryptedText)
		if err != nil {
			// Tag mismatch is fatal for the whole request, never swap
			// in garbage context.
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		title, ok := docTitles[chunk.DocumentID]
		if !ok {
			doc, err := s.docs.GetAnyByID(ctx, chunk.DocumentID)
			if err != nil {
				return nil, err
			}
			title = doc.Title
			docTitles[chunk.DocumentID] = title
		}
		fmt.Fprintf(&contextBlock, "[%s] %s\n", title, text)
		citations = append(citations, Citation{
			DocumentTitle: title,
			ChunkID:       chunk.ID,
			DocumentID:    chunk.DocumentID,
			TenantID:      chunk.TenantID,
		})
	}

	prompt := fmt.Sprintf(promptTemplate, in.Query, contextBlock.String())
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	conversationID, err := s.resolveConversation(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.appendMessages(ctx, conversationID, in.Query, answer); err != nil {
		return nil, err
	}

	scope := model.RetrievalScopeTenantOnly
	if in.IncludeShared {
		scope = model.RetrievalScopeCrossTenant
	}
	chunkIDs := make([]string, 0, len(citations))
	for _, citation := range citations {
		chunkIDs = append(chunkIDs, citation.ChunkID)
	}
	audit := &model.RetrievalAudit{
		ID:         newID(),
		TenantID:   in.TenantID,
		UserID:     in.UserID,
		Query:      in.Query,
		Scope:      scope,
		ChunkIDs:   chunkIDs,
		PurposeTag: in.PurposeTag,
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		return nil, err
	}
	logger.Info("retrieval answered",
		zap.String("scope", scope),
		zap.Int("citations", len(citations)),
	)

	return &ChatOutput{
		Answer:         answer,
		Citations:      citations,
		ConversationID: conversationID,
	}, nil
}

func (s *RetrievalService) GetConversation(ctx context.Context, tenantID, convID string) (*model.Conversation, []model.Message, error) {
	conv, err := s.convs.GetByID(ctx, tenantID, convID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.convs.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (s *RetrievalService) ListConversations(ctx context.Context, tenantID, userID string, limit, offset uint) ([]model.Conversation, error) {
	return s.convs.ListByUser(ctx, tenantID, userID, limit, offset)
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	digest := sha256.Sum256([]byte(s.embedder.ModelName() + "\x00" + query))
	cacheKey := hex.EncodeToString(digest[:])
	if cached, ok := s.queryCache.Get(cacheKey); ok {
		return cached, nil
	}
	embedding, err := s.embedder.Embed(ctx, query, embedTaskQuery)
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(cacheKey, embedding)
	return embedding, nil
}

func (s *RetrievalService) resolveConversation(ctx context.Context, in ChatInput) (string, error) {
	if in.ConversationID != "" {
		conv, err := s.convs.GetByID(ctx, in.TenantID, in.ConversationID)
		if err == nil {
			return conv.ID, nil
		}
		if !appErr.IsNotFound(err) {
			return "", err
		}
	}
	conv := &model.Conversation{
		ID:       newID(),
		TenantID: in.TenantID,
		UserID:   in.UserID,
		Title:    truncateRunes(in.Query, maxTitleRunes),
		Ctime:    timeutil.NowUnix(),
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return "", err
	}
	return conv.ID, nil
}

func (s *RetrievalService) appendMessages(ctx context.Context, conversationID, query, answer string) error {
	userMsg := &model.Message{
		ID:             newID(),
		ConversationID: conversationID,
		Role:           model.MessageRoleUser,
		Content:        query,
		Ctime:          timeutil.NowUnix(),
	}
	if err := s.convs.AddMessage(ctx, userMsg); err != nil {
		return err
	}
	assistantMsg := &model.Message{
		ID:             newID(),
		ConversationID: conversationID,
		Role:           model.MessageRoleAssistant,
		Content:        answer,
		Ctime:          timeutil.NowUnix(),
	}
	return s.convs.AddMessage(ctx, assistantMsg)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
