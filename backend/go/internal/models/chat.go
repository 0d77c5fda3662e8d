package models

// ChatRequest is a single-turn chat completion request: one system message,
// one user message and an output token cap.
type ChatRequest struct {
	System    string
	User      string
	MaxTokens int
}
