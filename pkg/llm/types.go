package llm

import "github.com/nikogura/cvforge/pkg/content"

// OptimizeRequest is the input to one optimization call.
type OptimizeRequest struct {
	// RawText is the combined text of the source documents.
	RawText        string
	JobDescription string
	Language       Language
	// StyleReference is optional free text describing a preferred résumé style.
	StyleReference string
	// Prior is the content of an existing version when updating it.
	Prior *content.Resume
}

// ClaudeRequest represents the Claude API request format.
type ClaudeRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

// ClaudeResponse represents the Claude API response format.
type ClaudeResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Role       string    `json:"role"`
	Content    []Content `json:"content"`
	Model      string    `json:"model"`
	StopReason string    `json:"stop_reason,omitempty"`
	Usage      Usage     `json:"usage"`
}

// ClaudeError is the error body returned by the API on non-200 responses.
type ClaudeError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Content represents content in the response.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage represents token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
