package loaders

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/unidoc/unioffice/v2/common/license"
	"github.com/unidoc/unioffice/v2/document"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
)

// docxLicensed 为 true 时使用 unioffice 解析，否则直接读取 word/document.xml。
var docxLicensed atomic.Bool

// SetDocxLicense 设置 unioffice 的计量许可证。未设置时使用内置的 XML 解析，DOCX 同样可用。
func SetDocxLicense(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("设置 unioffice 许可证失败: %w", err)
	}
	docxLicensed.Store(true)
	return nil
}

// DocxLoader 实现了用于读取 Word (.docx) 文件的 Loader 接口。
type DocxLoader struct{}

// NewDocxLoader 创建一个新的 DocxLoader。
func NewDocxLoader() *DocxLoader {
	return &DocxLoader{}
}

// Load 读取一个 .docx 文件，每个段落输出一行。
func (l *DocxLoader) Load(ctx context.Context, path string) (string, error) {
	if docxLicensed.Load() {
		return loadWithUnioffice(path)
	}
	return loadDocumentXML(path)
}

// loadWithUnioffice 按顺序提取正文段落，然后是表格单元格中的文本。
func loadWithUnioffice(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, p := range doc.Paragraphs() {
		writeParagraph(&textBuilder, p)
	}
	for _, tbl := range doc.Tables() {
		for _, row := range tbl.Rows() {
			for _, cell := range row.Cells() {
				for _, p := range cell.Paragraphs() {
					writeParagraph(&textBuilder, p)
				}
			}
		}
	}
	return textBuilder.String(), nil
}

func writeParagraph(sb *strings.Builder, p document.Paragraph) {
	for _, r := range p.Runs() {
		sb.WriteString(r.Text())
	}
	sb.WriteString("\n")
}

// loadDocumentXML 按文档顺序读取 word/document.xml 中的文本，表格单元格中的段落同样各占一行。
func loadDocumentXML(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, "word/document.xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open docx body: %w", err)
		}
		defer rc.Close()
		return documentText(rc)
	}
	return "", errors.New("open docx: word/document.xml not found")
}

func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", fmt.Errorf("parse docx body: %w", err)
				}
				sb.WriteString(text)
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		}
	}
}

// 编译时检查，确保 DocxLoader 实现了 Loader 接口
var _ interfaces.Loader = (*DocxLoader)(nil)
