package models

const (
	// MetadataKeyText holds the chunk text stored alongside each vector.
	MetadataKeyText = "text"
	// MetadataKeySource is the file name the chunk was extracted from.
	MetadataKeySource = "source"
	// MetadataKeyChunkIndex is the chunk's sequence index within its document.
	MetadataKeyChunkIndex = "chunk_index"
)

// VectorRecord is the persisted unit in the vector store.
type VectorRecord struct {
	ID       string                 `json:"id"`
	Vector   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryResult is one ranked match of a similarity search.
type QueryResult struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Text returns the stored chunk text, or "" when the match carries none.
func (r QueryResult) Text() string {
	if r.Metadata == nil {
		return ""
	}
	s, _ := r.Metadata[MetadataKeyText].(string)
	return s
}
