package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to the RAG service HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Match is one retrieved chunk.
type Match struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Upload sends the file at path and returns the confirmation message.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "/upload/", mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Query asks a question and returns the answer.
func (c *Client) Query(ctx context.Context, query string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postJSON(ctx, "/query/", map[string]interface{}{"query": query}, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Retrieve returns the chunks matching query.
func (c *Client) Retrieve(ctx context.Context, query string, topK int) ([]Match, error) {
	var out struct {
		Matches []Match `json:"matches"`
	}
	req := map[string]interface{}{"query": query}
	if topK > 0 {
		req["top_k"] = topK
	}
	if err := c.postJSON(ctx, "/retrieve/", req, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// MindMap returns the raw mind-map JSON for query.
func (c *Client) MindMap(ctx context.Context, query string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.postJSON(ctx, "/generate-mindmap/", map[string]interface{}{"query": query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating JSON payload: %w", err)
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(b), out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
