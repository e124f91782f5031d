package mapper

import (
	"encoding/json"

	"filechat-be/internal/entity"
	"filechat-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToModel(e *entity.Chunk) *model.Chunk {
	meta, _ := json.Marshal(e.Metadata)
	return &model.Chunk{
		Id:        e.Id,
		Document:  e.Document,
		Embedding: pgvector.NewVector(e.Embedding),
		SessionId: e.SessionId,
		Timestamp: e.Timestamp,
		Metadata:  datatypes.JSON(meta),
	}
}

func (m *ChunkMapper) ToEntity(mo *model.Chunk) *entity.Chunk {
	var meta entity.ChunkMetadata
	if len(mo.Metadata) > 0 {
		_ = json.Unmarshal(mo.Metadata, &meta)
	}
	return &entity.Chunk{
		Id:        mo.Id,
		Document:  mo.Document,
		Embedding: mo.Embedding.Slice(),
		SessionId: mo.SessionId,
		Timestamp: mo.Timestamp,
		Metadata:  meta,
	}
}
