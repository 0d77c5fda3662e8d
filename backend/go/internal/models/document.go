package models

// FileType is one of the document formats accepted for ingestion.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeDOCX     FileType = "docx"
	FileTypeTXT      FileType = "txt"
	FileTypeMarkdown FileType = "md"
)

// SupportedFileTypes lists the accepted upload formats.
var SupportedFileTypes = []FileType{FileTypePDF, FileTypeDOCX, FileTypeTXT, FileTypeMarkdown}

// Document is an uploaded file while it is being processed. It never outlives one request.
type Document struct {
	Filename    string
	ContentType FileType
	// MIMEType is the sniffed content type of the raw bytes, informational only.
	MIMEType string
	Path     string
	Text     string
}

// Chunk is a bounded substring of a document's extracted text.
type Chunk struct {
	Text             string
	SourceDocumentID string
	SequenceIndex    int
}
