package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
)

// Extraction is the outcome of running a loader: either extracted text or the
// reason extraction failed. Text is empty whenever Err is set.
type Extraction struct {
	Text string
	Err  error
}

// OK reports whether extraction succeeded.
func (e Extraction) OK() bool { return e.Err == nil }

// Extract runs l on path and never fails: loader errors and panics from the
// underlying parsers are captured in the returned Extraction.
func Extract(ctx context.Context, l interfaces.Loader, path string) (ex Extraction) {
	defer func() {
		if r := recover(); r != nil {
			ex = Extraction{Err: fmt.Errorf("extract %s: parser panic: %v", filepath.Base(path), r)}
		}
	}()

	text, err := l.Load(ctx, path)
	if err != nil {
		return Extraction{Err: fmt.Errorf("extract %s: %w", filepath.Base(path), err)}
	}
	return Extraction{Text: text}
}

// FileTypeFromName returns the supported file type for name, judged by its
// extension case-insensitively.
func FileTypeFromName(name string) (models.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, ft := range models.SupportedFileTypes {
		if string(ft) == ext {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ragerr.ErrUnsupportedFileType, name)
}

// ForType returns the loader for a supported file type.
func ForType(ft models.FileType) (interfaces.Loader, error) {
	switch ft {
	case models.FileTypePDF:
		return NewPdfLoader(), nil
	case models.FileTypeDOCX:
		return NewDocxLoader(), nil
	case models.FileTypeTXT:
		return NewTxtLoader(), nil
	case models.FileTypeMarkdown:
		return NewMarkdownLoader(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ragerr.ErrUnsupportedFileType, ft)
	}
}

// readUTF8 reads a file that must be valid UTF-8.
func readUTF8(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(content), nil
}
