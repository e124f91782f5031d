package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"filechat-be/internal/config"
	"filechat-be/internal/entity"
	"filechat-be/pkg/drive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeChunkRepo struct {
	mu          sync.Mutex
	created     []*entity.Chunk
	bulkCalls   int
	existsAfter int // ExistsById returns true once called this many times
	existsCalls int
	deleted     int64
	lastCutoff  int64
	searchOut   []*entity.Chunk
	sessions    map[string]bool
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, chunks...)
	r.bulkCalls++
	return nil
}

func (r *fakeChunkRepo) SearchSimilar(ctx context.Context, embedding []float32, sessionId string, limit int) ([]*entity.Chunk, error) {
	return r.searchOut, nil
}

func (r *fakeChunkRepo) ExistsById(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsCalls++
	return r.existsCalls >= r.existsAfter, nil
}

func (r *fakeChunkRepo) ExistsBySessionId(ctx context.Context, sessionId string) (bool, error) {
	return r.sessions[sessionId], nil
}

func (r *fakeChunkRepo) DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCutoff = cutoffMillis
	return r.deleted, nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		MaxFileSizeKB:     1024,
		MaxFolderSizeKB:   2048,
		ChunkSize:         50,
		ChunkOverlap:      10,
		IndexCheckRetries: 3,
		IndexCheckSleepMs: 1,
		WriteWorkers:      2,
	}
}

func newTestIngestService(t *testing.T, repo *fakeChunkRepo, embedder *fakeEmbedder) *ingestService {
	t.Helper()
	svc, err := NewIngestService(repo, embedder, nil, nil, testIngestConfig(), nopLogger{})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc.(*ingestService)
}

func TestSplitTagsEverySessionChunk(t *testing.T) {
	svc := newTestIngestService(t, &fakeChunkRepo{existsAfter: 1}, &fakeEmbedder{})

	pages := []sourcePage{
		{fileName: "report.pdf", page: 1, text: strings.Repeat("a", 120)},
		{fileName: "report.pdf", page: 2, text: "short"},
	}
	chunks := svc.split("sess-1", pages)

	require.NotEmpty(t, chunks)
	// 120 runes at size 50 / overlap 10 gives 3 chunks, plus 1 for page 2.
	assert.Len(t, chunks, 4)

	ts := chunks[0].Timestamp
	for _, c := range chunks {
		assert.Equal(t, "sess-1", c.SessionId)
		assert.True(t, strings.HasPrefix(c.Id, "sess-1-"), "chunk id %q must carry the session prefix", c.Id)
		assert.Equal(t, ts, c.Timestamp, "all chunks of one ingest share a timestamp")
		assert.Equal(t, "report.pdf", c.Metadata.FileName)
	}
	assert.Equal(t, 2, chunks[3].Metadata.Page)
}

func TestEmbedAndWritePersistsBatch(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 1}
	svc := newTestIngestService(t, repo, &fakeEmbedder{})

	chunks := svc.split("sess-2", []sourcePage{{fileName: "a.pdf", page: 1, text: strings.Repeat("x", 200)}})
	require.NoError(t, svc.embedAndWrite(context.Background(), chunks))

	assert.Equal(t, 1, repo.bulkCalls)
	require.Len(t, repo.created, len(chunks))
	for _, c := range repo.created {
		assert.NotEmpty(t, c.Embedding, "chunk %s written without embedding", c.Id)
	}
}

func TestEmbedAndWritePropagatesEmbedError(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 1}
	svc := newTestIngestService(t, repo, &fakeEmbedder{err: errors.New("provider down")})

	chunks := svc.split("sess-3", []sourcePage{{fileName: "a.pdf", page: 1, text: "hello"}})
	err := svc.embedAndWrite(context.Background(), chunks)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
	assert.Zero(t, repo.bulkCalls, "nothing must be written when embedding fails")
}

func TestConfirmIndexedRetriesUntilVisible(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 2}
	svc := newTestIngestService(t, repo, &fakeEmbedder{})

	chunks := []*entity.Chunk{{Id: "sess-4-x"}}
	require.NoError(t, svc.confirmIndexed(context.Background(), chunks))
	assert.Equal(t, 2, repo.existsCalls)
}

func TestConfirmIndexedGivesUpAfterRetries(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 100}
	svc := newTestIngestService(t, repo, &fakeEmbedder{})

	err := svc.confirmIndexed(context.Background(), []*entity.Chunk{{Id: "sess-5-x"}})
	assert.ErrorIs(t, err, ErrIndexCheckTimeout)
	assert.Equal(t, 3, repo.existsCalls)
}

func TestIngestRejectsInvalidUploadBeforeWork(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 1}
	svc := newTestIngestService(t, repo, &fakeEmbedder{})

	_, err := svc.Ingest(context.Background(), UploadedFiles{Files: []UploadedFile{{
		Name:        "evil.exe",
		ContentType: "application/octet-stream",
		Size:        10,
	}}})

	require.Error(t, err)
	assert.Equal(t, "Invalid non-PDF file type.", err.Error())
	assert.Zero(t, repo.bulkCalls)
}

func TestIngestFailsWhenIndexConfirmationTimesOut(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 100}
	svc := newTestIngestService(t, repo, &fakeEmbedder{})

	pages := []sourcePage{{fileName: "a.pdf", page: 1, text: "hello"}}
	err := svc.ingestPages(context.Background(), "sess-6", pages, 1)

	assert.ErrorIs(t, err, ErrIndexCheckTimeout)
	assert.Equal(t, 1, repo.bulkCalls, "chunks are written before confirmation fails")
}

func TestIngestRejectsOversizedFolder(t *testing.T) {
	// One 3 MB remote file against the 2048 KB folder ceiling.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"files":[{"id":"pdf-1","name":"a.pdf","mimeType":"application/pdf","size":"3000000"}]}`))
	}))
	t.Cleanup(srv.Close)

	repo := &fakeChunkRepo{existsAfter: 1}
	driveClient := drive.NewClient(srv.URL, "test-key", srv.Client())
	svc, err := NewIngestService(repo, &fakeEmbedder{}, driveClient, nil, testIngestConfig(), nopLogger{})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	_, err = svc.Ingest(context.Background(), CloudFolder{Ref: strings.Repeat("A", 33)})

	require.Error(t, err)
	assert.Equal(t, "Google Drive folder size exceeded maximum of 2048 KB", err.Error())
	assert.True(t, IsUserError(err))
	assert.Zero(t, repo.bulkCalls)
}

func TestIngestRejectsBadFolderRef(t *testing.T) {
	repo := &fakeChunkRepo{existsAfter: 1}
	svc := newTestIngestService(t, repo, &fakeEmbedder{})

	for _, ref := range []string{"not-a-url", "https://example.com/folders/abc"} {
		_, err := svc.Ingest(context.Background(), CloudFolder{Ref: ref})
		assert.ErrorIs(t, err, ErrInvalidFolderURL, fmt.Sprintf("ref %q", ref))
	}
}
