package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const purgeBatchSize = 100

type failedDocumentStore interface {
	ListFailedWithChunks(ctx context.Context, limit int) ([]string, error)
}

type chunkDeleter interface {
	DeleteByDocument(ctx context.Context, docID string) (int64, error)
}

// ChunkPurgeJob removes chunks that belong to failed documents so partial
// ingestions never surface in retrieval.
type ChunkPurgeJob struct {
	docs   failedDocumentStore
	chunks chunkDeleter
}

func NewChunkPurgeJob(docs failedDocumentStore, chunks chunkDeleter) *ChunkPurgeJob {
	return &ChunkPurgeJob{docs: docs, chunks: chunks}
}

func (j *ChunkPurgeJob) Name() string {
	return "chunk_purge"
}

func (j *ChunkPurgeJob) Run(ctx context.Context) error {
	docIDs, err := j.docs.ListFailedWithChunks(ctx, purgeBatchSize)
	if err != nil {
		return err
	}
	var purged int64
	for _, docID := range docIDs {
		deleted, err := j.chunks.DeleteByDocument(ctx, docID)
		if err != nil {
			return err
		}
		purged += deleted
	}
	if purged > 0 {
		logutil.GetLogger(ctx).Info("orphan chunks purged",
			zap.Int("documents", len(docIDs)), zap.Int64("chunks", purged))
	}
	return nil
}
