package contract

import (
	"context"

	"filechat-be/internal/entity"
)

// ChunkRepository is the session store boundary. Queries are always scoped
// by an exact session tag, an id, or a timestamp comparison.
type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	SearchSimilar(ctx context.Context, embedding []float32, sessionId string, limit int) ([]*entity.Chunk, error)
	ExistsById(ctx context.Context, id string) (bool, error)
	ExistsBySessionId(ctx context.Context, sessionId string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error)
}
