package textsplit

// Splitter re-chunks text into roughly fixed-size pieces with an overlap to
// preserve context at boundaries. This is a simple character-based splitter;
// callers that need token-exact sizing should wrap a tokenizer instead.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split returns an ordered sequence of one-or-more chunks. The input is
// never dropped: every rune appears in at least one chunk.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if totalLen <= s.ChunkSize {
		return []string{text}
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize // fallback if overlap >= chunkSize
	}

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := i + s.ChunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
