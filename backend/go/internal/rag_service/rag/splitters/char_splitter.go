package splitters

import (
	"fmt"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
)

// Split slices text into windows of size characters, advancing by size-overlap
// each time until the window start passes the end of the text. Lengths are
// counted in runes so multi-byte characters are never cut in half.
// The last window may be shorter than size. Empty text yields no chunks.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ragerr.ErrInvalidChunkConfig, size, overlap)
	}

	runes := []rune(text)
	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}

// Join reverses Split: every chunk after the first contributes only the part
// past its leading overlap.
func Join(chunks []string, overlap int) string {
	var out []rune
	for i, c := range chunks {
		r := []rune(c)
		if i > 0 {
			if len(r) <= overlap {
				continue
			}
			r = r[overlap:]
		}
		out = append(out, r...)
	}
	return string(out)
}

// CharSplitter implements the Splitter interface with fixed character windows.
type CharSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewCharSplitter validates the window settings up front so a bad
// configuration fails at startup instead of on the first upload.
func NewCharSplitter(chunkSize, chunkOverlap int) (*CharSplitter, error) {
	if _, err := Split("", chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	return &CharSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split splits text with the splitter's settings.
func (s *CharSplitter) Split(text string) ([]string, error) {
	return Split(text, s.ChunkSize, s.ChunkOverlap)
}

// SplitDocument splits the text of doc into ordered chunks attributed to it.
func (s *CharSplitter) SplitDocument(doc models.Document) ([]models.Chunk, error) {
	texts, err := s.Split(doc.Text)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.Chunk{
			Text:             t,
			SourceDocumentID: doc.Filename,
			SequenceIndex:    i,
		}
	}
	return chunks, nil
}

// compile-time check to ensure CharSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharSplitter)(nil)
