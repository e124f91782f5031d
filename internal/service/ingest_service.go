package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"filechat-be/internal/config"
	"filechat-be/internal/entity"
	"filechat-be/internal/pkg/logger"
	"filechat-be/internal/repository/contract"
	"filechat-be/pkg/drive"
	"filechat-be/pkg/embedding"
	"filechat-be/pkg/events"
	natspkg "filechat-be/pkg/nats"
	"filechat-be/pkg/pdfload"
	"filechat-be/pkg/textsplit"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// Ingest stages, logged as each request moves through the pipeline.
const (
	stageValidating     = "VALIDATING"
	stageAcquiring      = "ACQUIRING"
	stageSplitting      = "SPLITTING"
	stageWriting        = "WRITING"
	stageConfirmIndexed = "CONFIRM_INDEXED"
	stageReady          = "READY"
)

type IIngestService interface {
	// Ingest runs the full pipeline for one request and returns the new
	// session id once its chunks are written and confirmed readable.
	Ingest(ctx context.Context, input IngestInput) (string, error)
	Close()
}

// sourcePage is one page of extracted text together with its origin, the
// unit fed to the splitter.
type sourcePage struct {
	fileName string
	page     int
	text     string
}

type ingestService struct {
	chunkRepo         contract.ChunkRepository
	embeddingProvider embedding.EmbeddingProvider
	driveClient       *drive.Client
	splitter          *textsplit.Splitter
	writePool         *ants.Pool
	eventPublisher    *natspkg.Publisher
	cfg               config.IngestConfig
	logger            logger.ILogger
}

func NewIngestService(
	chunkRepo contract.ChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	driveClient *drive.Client,
	eventPublisher *natspkg.Publisher,
	cfg config.IngestConfig,
	log logger.ILogger,
) (IIngestService, error) {
	pool, err := ants.NewPool(cfg.WriteWorkers)
	if err != nil {
		return nil, fmt.Errorf("create ingest worker pool: %w", err)
	}

	return &ingestService{
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		driveClient:       driveClient,
		splitter:          textsplit.New(cfg.ChunkSize, cfg.ChunkOverlap),
		writePool:         pool,
		eventPublisher:    eventPublisher,
		cfg:               cfg,
		logger:            log,
	}, nil
}

func (is *ingestService) Close() {
	is.writePool.Release()
}

func (is *ingestService) Ingest(ctx context.Context, input IngestInput) (string, error) {
	sessionID := uuid.NewString()

	is.logStage(sessionID, stageValidating, nil)
	pages, documents, err := is.acquire(ctx, sessionID, input)
	if err != nil {
		return "", err
	}

	if err := is.ingestPages(ctx, sessionID, pages, documents); err != nil {
		return "", err
	}
	return sessionID, nil
}

// ingestPages runs the post-acquisition stages: split, embed, write and
// confirm the batch is readable.
func (is *ingestService) ingestPages(ctx context.Context, sessionID string, pages []sourcePage, documents int) error {
	is.logStage(sessionID, stageSplitting, map[string]interface{}{"pages": len(pages)})
	chunks := is.split(sessionID, pages)

	is.logStage(sessionID, stageWriting, map[string]interface{}{"chunks": len(chunks)})
	if err := is.embedAndWrite(ctx, chunks); err != nil {
		return err
	}

	is.logStage(sessionID, stageConfirmIndexed, nil)
	if err := is.confirmIndexed(ctx, chunks); err != nil {
		// Chunks may already be durable, but the batch is not confirmed
		// readable, so the request fails rather than hand out a session
		// that cannot answer yet.
		is.logger.Error("IngestService", "Index confirmation failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return err
	}

	is.logStage(sessionID, stageReady, map[string]interface{}{
		"documents": documents,
		"chunks":    len(chunks),
	})
	is.publishIngested(ctx, sessionID, documents, len(chunks))

	return nil
}

// acquire validates the input and materializes it into extracted pages.
func (is *ingestService) acquire(ctx context.Context, sessionID string, input IngestInput) ([]sourcePage, int, error) {
	switch in := input.(type) {
	case UploadedFiles:
		if err := in.Validate(int64(is.cfg.MaxFileSizeKB) * 1024); err != nil {
			return nil, 0, err
		}
		is.logStage(sessionID, stageAcquiring, map[string]interface{}{"source": "upload", "files": len(in.Files)})
		pages, err := is.loadUploads(in)
		return pages, len(in.Files), err

	case CloudFolder:
		folderID, err := drive.GetFolderID(in.Ref)
		if err != nil {
			return nil, 0, ErrInvalidFolderURL
		}
		is.logStage(sessionID, stageAcquiring, map[string]interface{}{"source": "drive", "folder_id": folderID})
		return is.loadFolder(ctx, folderID)

	default:
		return nil, 0, ErrNoInputs
	}
}

func (is *ingestService) loadUploads(in UploadedFiles) ([]sourcePage, error) {
	var pages []sourcePage
	for _, f := range in.Files {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", f.Name, err)
		}

		loaded, err := pdfload.Load(content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name, err)
		}
		for _, p := range loaded {
			pages = append(pages, sourcePage{fileName: f.Name, page: p.Number, text: p.Text})
		}
	}
	return pages, nil
}

func (is *ingestService) loadFolder(ctx context.Context, folderID string) ([]sourcePage, int, error) {
	maxBytes := int64(is.cfg.MaxFolderSizeKB) * 1024
	size, err := is.driveClient.FolderSize(ctx, folderID)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve folder size: %w", err)
	}
	if size > maxBytes {
		return nil, 0, errFolderTooLarge(int64(is.cfg.MaxFolderSizeKB))
	}

	var (
		pages     []sourcePage
		documents int
	)
	err = is.driveClient.DownloadFolder(ctx, folderID, func(f drive.File, path string) error {
		loaded, err := pdfload.LoadFile(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Name, err)
		}
		documents++
		for _, p := range loaded {
			pages = append(pages, sourcePage{fileName: f.Name, page: p.Number, text: p.Text})
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return pages, documents, nil
}

// split turns pages into store-ready chunk entities, embeddings not yet
// computed. All chunks of a session share one ingestion timestamp so the
// sweeper expires the session as a unit.
func (is *ingestService) split(sessionID string, pages []sourcePage) []*entity.Chunk {
	now := time.Now().UnixMilli()
	var chunks []*entity.Chunk
	for _, p := range pages {
		for _, piece := range is.splitter.Split(p.text) {
			chunks = append(chunks, &entity.Chunk{
				Id:        sessionID + "-" + uuid.NewString(),
				Document:  piece,
				SessionId: sessionID,
				Timestamp: now,
				Metadata: entity.ChunkMetadata{
					FileName: p.fileName,
					Page:     p.page,
				},
			})
		}
	}
	return chunks
}

// embedAndWrite computes embeddings concurrently on the worker pool, then
// persists the whole batch.
func (is *ingestService) embedAndWrite(ctx context.Context, chunks []*entity.Chunk) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, c := range chunks {
		c := c
		wg.Add(1)
		if err := is.writePool.Submit(func() {
			defer wg.Done()
			vec, err := is.embeddingProvider.Embed(ctx, c.Document)
			if err != nil {
				setErr(fmt.Errorf("embed chunk %s: %w", c.Id, err))
				return
			}
			c.Embedding = vec
		}); err != nil {
			wg.Done()
			setErr(err)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if len(chunks) == 0 {
		return nil
	}
	return is.chunkRepo.CreateBulk(ctx, chunks)
}

// confirmIndexed polls the store until the last written chunk is readable.
func (is *ingestService) confirmIndexed(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	lastID := chunks[len(chunks)-1].Id

	for attempt := 0; attempt < is.cfg.IndexCheckRetries; attempt++ {
		exists, err := is.chunkRepo.ExistsById(ctx, lastID)
		if err == nil && exists {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(is.cfg.IndexCheckSleepMs) * time.Millisecond):
		}
	}
	return ErrIndexCheckTimeout
}

func (is *ingestService) publishIngested(ctx context.Context, sessionID string, documents, chunks int) {
	if is.eventPublisher == nil {
		return
	}
	if err := is.eventPublisher.Publish(ctx, events.SessionIngested(sessionID, documents, chunks)); err != nil {
		is.logger.Warn("IngestService", "Failed to publish SESSION_INGESTED event", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (is *ingestService) logStage(sessionID, stage string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["session_id"] = sessionID
	details["stage"] = stage
	is.logger.Info("IngestService", "Ingest stage", details)
}
