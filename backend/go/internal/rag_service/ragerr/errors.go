// Package ragerr defines the error kinds shared by the RAG service layers and
// their mapping onto HTTP status codes.
package ragerr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedFileType is returned when an upload is not pdf, docx, txt or md.
	ErrUnsupportedFileType = errors.New("Unsupported file type")
	// ErrInvalidChunkConfig is returned when overlap is not smaller than chunk size.
	ErrInvalidChunkConfig = errors.New("chunk overlap must be smaller than chunk size")
	// ErrMalformedOutput is returned when the LLM reply is expected to be JSON but is not.
	ErrMalformedOutput = errors.New("LLM responded with invalid JSON")
	// ErrEmptyQuery is returned when a retrieve request has no text.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrDimensionMismatch is returned when an embedding does not have the configured size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Service names used in UpstreamError.
const (
	ServiceEmbedding   = "embedding"
	ServiceVectorStore = "vector store"
	ServiceLLM         = "LLM"
)

// UpstreamError wraps a failure reported by a remote dependency.
// StatusCode is the remote HTTP status when one is known, otherwise 0.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream builds an UpstreamError, returning nil for a nil err.
func Upstream(service string, status int, err error) error {
	if err == nil {
		return nil
	}
	var existing *UpstreamError
	if errors.As(err, &existing) {
		return err
	}
	return &UpstreamError{Service: service, StatusCode: status, Err: err}
}

// HTTPStatus maps an error onto the status code returned to HTTP clients.
// Upstream failures are reported as 500 unless passRemoteStatus is set, in which
// case a remote 4xx/5xx status is forwarded and anything else is 500.
func HTTPStatus(err error, passRemoteStatus bool) int {
	var up *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrInvalidChunkConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrMalformedOutput):
		return http.StatusInternalServerError
	case errors.As(err, &up):
		if !passRemoteStatus {
			return http.StatusInternalServerError
		}
		if up.StatusCode >= 400 && up.StatusCode <= 599 {
			return up.StatusCode
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
