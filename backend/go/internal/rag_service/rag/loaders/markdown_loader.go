package loaders

import (
	"context"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
)

// MarkdownLoader implements the Loader interface for reading Markdown (.md) files.
// Markup is kept as-is; headings and list markers carry useful context for the LLM.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a Markdown file as UTF-8 text.
func (l *MarkdownLoader) Load(ctx context.Context, path string) (string, error) {
	return readUTF8(path)
}

// compile-time check to ensure MarkdownLoader implements the Loader interface
var _ interfaces.Loader = (*MarkdownLoader)(nil)
