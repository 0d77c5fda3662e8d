package loaders

import (
	"context"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
)

// TxtLoader implements the Loader interface for reading plain text files.
type TxtLoader struct{}

// NewTxtLoader creates a new TxtLoader.
func NewTxtLoader() *TxtLoader {
	return &TxtLoader{}
}

// Load reads a UTF-8 text file from the given path.
func (l *TxtLoader) Load(ctx context.Context, path string) (string, error) {
	return readUTF8(path)
}

// compile-time check to ensure TxtLoader implements the Loader interface
var _ interfaces.Loader = (*TxtLoader)(nil)
