package entity

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	FileName string `json:"file_name,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// Chunk is one unit of indexed text. It belongs to exactly one session and
// is only ever removed by the retention sweeper.
type Chunk struct {
	Id        string
	Document  string
	Embedding []float32
	SessionId string
	Timestamp int64 // epoch milliseconds
	Metadata  ChunkMetadata
}
