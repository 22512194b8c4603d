package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"path"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragvault/ragvault/internal/ai"
	"github.com/ragvault/ragvault/internal/chunker"
	"github.com/ragvault/ragvault/internal/extract"
	"github.com/ragvault/ragvault/internal/filestore"
	"github.com/ragvault/ragvault/internal/keycustody"
	"github.com/ragvault/ragvault/internal/model"
	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
	"github.com/ragvault/ragvault/internal/pkg/timeutil"
)

const embedTaskDocument = "RETRIEVAL_DOCUMENT"

// IngestService runs the upload pipeline: persist blob, extract text, chunk,
// embed, encrypt, persist chunks. Plaintext only ever lives in request-local
// variables; everything that hits the chunk store is ciphertext.
type IngestService struct {
	docs      DocumentStore
	chunks    ChunkStore
	blobs     filestore.Store
	extractor *extract.Extractor
	splitter  *chunker.Splitter
	embedder  ai.IEmbedder
	scopes    *keycustody.ScopeFactory
	embedDim  int
}

func NewIngestService(
	docs DocumentStore,
	chunks ChunkStore,
	blobs filestore.Store,
	extractor *extract.Extractor,
	splitter *chunker.Splitter,
	embedder ai.IEmbedder,
	scopes *keycustody.ScopeFactory,
	embedDim int,
) *IngestService {
	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		blobs:     blobs,
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		scopes:    scopes,
		embedDim:  embedDim,
	}
}

type UploadInput struct {
	TenantID    string
	Title       string
	FileName    string
	ContentType string
	Content     []byte
}

func (s *IngestService) UploadDocument(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.TenantID == "" || in.Title == "" || len(in.Content) == 0 {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("tenant_id", in.TenantID),
		zap.String("title", in.Title),
	)

	docID := newID()
	blobKey := in.TenantID + "/" + docID + "-" + path.Base(in.FileName)
	if err := s.blobs.Save(ctx, blobKey, bytes.NewReader(in.Content), int64(len(in.Content))); err != nil {
		// No document record exists yet, nothing to roll back.
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorage, err)
	}

	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:          docID,
		TenantID:    in.TenantID,
		Title:       in.Title,
		BlobKey:     blobKey,
		ContentType: in.ContentType,
		Status:      model.DocumentStatusProcessing,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(in.FileName, in.Content)
	if err != nil {
		s.markFailed(ctx, doc)
		return nil, err
	}

	segments := s.splitter.Chunk(text)
	logger.Info("document chunked", zap.String("doc_id", docID), zap.Int("chunks", len(segments)))

	scope, err := s.scopes.Acquire(ctx, in.TenantID)
	if err != nil {
		s.markFailed(ctx, doc)
		return nil, err
	}
	defer scope.Release()

	for index, segment := range segments {
		embedding, err := s.embedder.Embed(ctx, segment, embedTaskDocument)
		if err != nil {
			s.markFailed(ctx, doc)
			return nil, fmt.Errorf("%w: chunk %d: %v", appErr.ErrEmbedding, index, err)
		}
		if s.embedDim > 0 && len(embedding) != s.embedDim {
			s.markFailed(ctx, doc)
			return nil, fmt.Errorf("%w: chunk %d: dimension %d, want %d", appErr.ErrEmbedding, index, len(embedding), s.embedDim)
		}
		encrypted, err := scope.EncryptText(segment)
		if err != nil {
			s.markFailed(ctx, doc)
			return nil, err
		}
		chunk := &model.DocumentChunk{
			ID:            newID(),
			DocumentID:    docID,
			TenantID:      in.TenantID,
			ChunkIndex:    index,
			EncryptedText: encrypted,
			PlainHash:     hashText(segment),
			Embedding:     embedding,
			Ctime:         timeutil.NowUnix(),
		}
		if err := s.chunks.Create(ctx, chunk); err != nil {
			s.markFailed(ctx, doc)
			return nil, err
		}
	}

	if err := s.docs.UpdateStatus(ctx, in.TenantID, docID, model.DocumentStatusReady, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatusReady
	logger.Info("document ingested", zap.String("doc_id", docID), zap.Int("chunks", len(segments)))
	return doc, nil
}

func (s *IngestService) GetDocument(ctx context.Context, tenantID, docID string) (*model.Document, error) {
	return s.docs.GetByID(ctx, tenantID, docID)
}

func (s *IngestService) ListDocuments(ctx context.Context, tenantID string, limit, offset uint) ([]model.Document, error) {
	return s.docs.ListByTenant(ctx, tenantID, limit, offset)
}

// markFailed is best effort: retrieval filters on ready status, so a failed
// transition that itself fails still cannot surface the partial chunks.
func (s *IngestService) markFailed(ctx context.Context, doc *model.Document) {
	doc.Status = model.DocumentStatusFailed
	if err := s.docs.UpdateStatus(ctx, doc.TenantID, doc.ID, model.DocumentStatusFailed, timeutil.NowUnix()); err != nil {
		logutil.GetLogger(ctx).Error("mark document failed",
			zap.String("doc_id", doc.ID),
			zap.Error(err),
		)
	}
}

func hashText(text string) string {
	digest := sha256.Sum256([]byte(text))
	return base64.StdEncoding.EncodeToString(digest[:])
}
