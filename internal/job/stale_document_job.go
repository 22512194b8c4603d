package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type staleDocumentStore interface {
	MarkStaleProcessingFailed(ctx context.Context, cutoff, now int64) (int64, error)
}

// StaleDocumentJob fails documents stuck in the processing state, usually
// left behind by a crash between upload and chunking.
type StaleDocumentJob struct {
	docs       staleDocumentStore
	staleAfter time.Duration
}

func NewStaleDocumentJob(docs staleDocumentStore, staleAfter time.Duration) *StaleDocumentJob {
	return &StaleDocumentJob{docs: docs, staleAfter: staleAfter}
}

func (j *StaleDocumentJob) Name() string {
	return "stale_document"
}

func (j *StaleDocumentJob) Run(ctx context.Context) error {
	now := time.Now().UnixMilli()
	cutoff := now - j.staleAfter.Milliseconds()
	affected, err := j.docs.MarkStaleProcessingFailed(ctx, cutoff, now)
	if err != nil {
		return err
	}
	if affected > 0 {
		logutil.GetLogger(ctx).Info("stale documents marked failed", zap.Int64("count", affected))
	}
	return nil
}
