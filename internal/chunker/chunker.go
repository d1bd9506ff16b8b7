// Package chunker splits document text into fixed-size overlapping chunks.
package chunker

// Defaults match the ingestion pipeline: 1000-character chunks sharing 100
// characters with their neighbour.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// Chunk is one contiguous span of a document's text.
type Chunk struct {
	Index   int
	Content string
}

// Chunker produces deterministic chunks from a document's full text.
type Chunker struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split cuts text into chunks of at most chunkSize characters, each sharing
// overlap characters with its predecessor. Every chunk except the last has
// exactly chunkSize characters. Splitting is rune-based, so a multi-byte
// character never straddles a chunk edge. Empty text produces no chunks.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	stride := c.chunkSize - c.overlap
	chunks := make([]Chunk, 0, len(runes)/stride+1)

	for start, index := 0, 0; start < len(runes); start, index = start+stride, index+1 {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{Index: index, Content: string(runes[start:end])})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
