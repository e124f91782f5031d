package implementation

import (
	"context"

	"filechat-be/internal/entity"
	"filechat-be/internal/mapper"
	"filechat-be/internal/model"
	"filechat-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *ChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, sessionId string, limit int) ([]*entity.Chunk, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []*model.Chunk

	// pgvector cosine distance: embedding <=> vector, scoped to the session tag
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entities := make([]*entity.Chunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ChunkRepositoryImpl) ExistsById(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *ChunkRepositoryImpl) ExistsBySessionId(ctx context.Context, sessionId string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Where("session_id = ?", sessionId).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *ChunkRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoffMillis).
		Delete(&model.Chunk{})
	return result.RowsAffected, result.Error
}
