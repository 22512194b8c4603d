package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDocStore struct {
	cutoff    int64
	affected  int64
	failedIDs []string
}

func (s *fakeDocStore) MarkStaleProcessingFailed(ctx context.Context, cutoff, now int64) (int64, error) {
	s.cutoff = cutoff
	return s.affected, nil
}

func (s *fakeDocStore) ListFailedWithChunks(ctx context.Context, limit int) ([]string, error) {
	if limit < len(s.failedIDs) {
		return s.failedIDs[:limit], nil
	}
	return s.failedIDs, nil
}

type fakeChunkStore struct {
	deleted []string
}

func (s *fakeChunkStore) DeleteByDocument(ctx context.Context, docID string) (int64, error) {
	s.deleted = append(s.deleted, docID)
	return 3, nil
}

func TestStaleDocumentJobCutoff(t *testing.T) {
	docs := &fakeDocStore{affected: 2}
	j := NewStaleDocumentJob(docs, 30*time.Minute)
	require.Equal(t, "stale_document", j.Name())

	before := time.Now().UnixMilli()
	require.NoError(t, j.Run(context.Background()))
	after := time.Now().UnixMilli()

	// Cutoff sits staleAfter behind the run time.
	require.GreaterOrEqual(t, docs.cutoff, before-(30*time.Minute).Milliseconds())
	require.LessOrEqual(t, docs.cutoff, after-(30*time.Minute).Milliseconds())
}

func TestChunkPurgeJobDeletesPerDocument(t *testing.T) {
	docs := &fakeDocStore{failedIDs: []string{"doc-1", "doc-2"}}
	chunks := &fakeChunkStore{}
	j := NewChunkPurgeJob(docs, chunks)
	require.Equal(t, "chunk_purge", j.Name())

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, []string{"doc-1", "doc-2"}, chunks.deleted)
}

func TestChunkPurgeJobNoWork(t *testing.T) {
	docs := &fakeDocStore{}
	chunks := &fakeChunkStore{}
	require.NoError(t, NewChunkPurgeJob(docs, chunks).Run(context.Background()))
	require.Empty(t, chunks.deleted)
}
