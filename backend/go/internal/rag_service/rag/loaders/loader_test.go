package loaders

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestFileTypeFromName(t *testing.T) {
	tests := map[string]models.FileType{
		"notes.txt":        models.FileTypeTXT,
		"Lecture.PDF":      models.FileTypePDF,
		"essay.final.docx": models.FileTypeDOCX,
		"README.Md":        models.FileTypeMarkdown,
	}
	for name, want := range tests {
		got, err := FileTypeFromName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"setup.exe", "archive.tar.gz", "noextension", ""} {
		_, err := FileTypeFromName(name)
		assert.ErrorIs(t, err, ragerr.ErrUnsupportedFileType, name)
	}
}

func TestForType(t *testing.T) {
	for _, ft := range models.SupportedFileTypes {
		l, err := ForType(ft)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
	_, err := ForType("exe")
	assert.ErrorIs(t, err, ragerr.ErrUnsupportedFileType)
}

func TestTxtAndMarkdownLoaders(t *testing.T) {
	ctx := context.Background()

	txt := writeFile(t, "a.txt", []byte("plain text ✓"))
	ex := Extract(ctx, NewTxtLoader(), txt)
	require.True(t, ex.OK())
	assert.Equal(t, "plain text ✓", ex.Text)

	md := writeFile(t, "b.md", []byte("# Title\n\n- item"))
	ex = Extract(ctx, NewMarkdownLoader(), md)
	require.True(t, ex.OK())
	assert.Equal(t, "# Title\n\n- item", ex.Text)
}

func TestExtract_InvalidUTF8Degrades(t *testing.T) {
	path := writeFile(t, "bad.txt", []byte{0xff, 0xfe, 0xfd})
	ex := Extract(context.Background(), NewTxtLoader(), path)
	assert.False(t, ex.OK())
	assert.Empty(t, ex.Text)
}

func TestExtract_MissingFile(t *testing.T) {
	ex := Extract(context.Background(), NewTxtLoader(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.False(t, ex.OK())
}

func TestExtract_CorruptBinaryFormats(t *testing.T) {
	ctx := context.Background()

	pdfPath := writeFile(t, "broken.pdf", []byte("%PDF-1.4 this is not really a pdf"))
	ex := Extract(ctx, NewPdfLoader(), pdfPath)
	assert.False(t, ex.OK())
	assert.Empty(t, ex.Text)

	docxPath := writeFile(t, "broken.docx", []byte("PK not a zip"))
	ex = Extract(ctx, NewDocxLoader(), docxPath)
	assert.False(t, ex.OK())
	assert.Empty(t, ex.Text)
}

type panickyLoader struct{}

func (panickyLoader) Load(context.Context, string) (string, error) { panic("malformed xref") }

type failingLoader struct{ err error }

func (f failingLoader) Load(context.Context, string) (string, error) { return "partial", f.err }

func TestExtract_RecoversPanics(t *testing.T) {
	ex := Extract(context.Background(), panickyLoader{}, "x.pdf")
	assert.False(t, ex.OK())
	assert.Contains(t, ex.Err.Error(), "malformed xref")
}

func TestExtract_DropsPartialTextOnError(t *testing.T) {
	boom := errors.New("boom")
	ex := Extract(context.Background(), failingLoader{err: boom}, "x.txt")
	assert.ErrorIs(t, ex.Err, boom)
	assert.Empty(t, ex.Text)
}

func TestSetDocxLicense_EmptyKeyIsNoop(t *testing.T) {
	assert.NoError(t, SetDocxLicense(""))
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"_rels/.rels":         docxRels,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocxLoader_ExtractsWithoutLicense(t *testing.T) {
	body := `<w:p><w:r><w:t>hello docx</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`
	path := writeFile(t, "notes.docx", buildDocx(t, body))

	ex := Extract(context.Background(), NewDocxLoader(), path)
	require.True(t, ex.OK(), "%v", ex.Err)
	assert.Equal(t, "hello docx world\na\tb\ncell\n", ex.Text)
}

func TestDocxLoader_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("docProps/core.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ex := Extract(context.Background(), NewDocxLoader(), writeFile(t, "empty.docx", buf.Bytes()))
	assert.False(t, ex.OK())
	assert.Contains(t, ex.Err.Error(), "word/document.xml")
}

// buildPDF writes a single page PDF that shows text in Helvetica.
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPdfLoader_ExtractsText(t *testing.T) {
	path := writeFile(t, "lecture.pdf", buildPDF("Hello PDF world"))

	ex := Extract(context.Background(), NewPdfLoader(), path)
	require.True(t, ex.OK(), "%v", ex.Err)
	assert.Contains(t, ex.Text, "Hello PDF world")
}
