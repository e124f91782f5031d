package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"filechat-be/internal/entity"
	"filechat-be/internal/repository/implementation"
	"filechat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRepository(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, database.Migrate(gormDB))

	repo := implementation.NewChunkRepository(gormDB)
	ctx := context.Background()

	sessionID := uuid.NewString()
	otherSession := uuid.NewString()
	now := time.Now().UnixMilli()

	embed := func(seed float32) []float32 {
		v := make([]float32, 1536)
		v[0] = seed
		v[1] = 1 - seed
		return v
	}

	chunks := []*entity.Chunk{
		{
			Id:        sessionID + "-" + uuid.NewString(),
			Document:  "alpha document",
			Embedding: embed(0.9),
			SessionId: sessionID,
			Timestamp: now,
			Metadata:  entity.ChunkMetadata{FileName: "a.pdf", Page: 1},
		},
		{
			Id:        sessionID + "-" + uuid.NewString(),
			Document:  "beta document",
			Embedding: embed(0.1),
			SessionId: sessionID,
			Timestamp: now,
			Metadata:  entity.ChunkMetadata{FileName: "a.pdf", Page: 2},
		},
		{
			Id:        otherSession + "-" + uuid.NewString(),
			Document:  "foreign document",
			Embedding: embed(0.9),
			SessionId: otherSession,
			Timestamp: now - (48 * time.Hour).Milliseconds(),
		},
	}
	require.NoError(t, repo.CreateBulk(ctx, chunks))

	t.Run("ExistsById", func(t *testing.T) {
		exists, err := repo.ExistsById(ctx, chunks[0].Id)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsById(ctx, "missing-id")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ExistsBySessionId", func(t *testing.T) {
		exists, err := repo.ExistsBySessionId(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySessionId(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("SearchSimilarScopesToSession", func(t *testing.T) {
		results, err := repo.SearchSimilar(ctx, embed(0.9), sessionID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, c := range results {
			assert.Equal(t, sessionID, c.SessionId, "results must never cross the session boundary")
		}
		assert.Equal(t, "alpha document", results[0].Document, "nearest chunk first")
	})

	t.Run("DeleteOlderThan", func(t *testing.T) {
		deleted, err := repo.DeleteOlderThan(ctx, now-(24*time.Hour).Milliseconds())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, deleted, int64(1))

		exists, err := repo.ExistsBySessionId(ctx, otherSession)
		require.NoError(t, err)
		assert.False(t, exists, "expired session must be gone")

		exists, err = repo.ExistsBySessionId(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, exists, "fresh session must survive the sweep")
	})

	// Cleanup
	t.Cleanup(func() {
		gormDB.Exec("DELETE FROM chunks WHERE session_id IN ?", []string{sessionID, otherSession})
	})
}
