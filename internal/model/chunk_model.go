package model

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Chunk struct {
	Id        string          `gorm:"type:text;primaryKey"` // "<sessionId>-<uuid>"
	Document  string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(1536)"` // text-embedding-3-small uses 1536 dimensions
	SessionId string          `gorm:"type:text;not null;index"`
	Timestamp int64           `gorm:"not null;index"` // epoch milliseconds
	Metadata  datatypes.JSON  `gorm:"type:jsonb"`
}

func (Chunk) TableName() string {
	return "chunks"
}
