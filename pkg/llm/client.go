// Package llm talks to the Anthropic Messages API to turn raw résumé material into
// structured content.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/pkg/errors"
)

const (
	// ClaudeAPIEndpoint is the Anthropic API endpoint.
	ClaudeAPIEndpoint = "https://api.anthropic.com/v1/messages"
	// ClaudeModel is the default model.
	ClaudeModel = "claude-sonnet-4-20250514"
	// ClaudeAPIVersion is the API version.
	ClaudeAPIVersion = "2023-06-01"

	defaultMaxTokens   = 4096
	defaultTemperature = 0.3
	defaultTimeout     = 300 * time.Second
	maxErrorBodyInMsg  = 512
)

// ClientConfig configures a Client. Zero values take the defaults.
type ClientConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Endpoint    string
}

// Client represents a Claude API client.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	endpoint    string
}

// NewClient creates a new Claude API client.
func NewClient(cfg ClientConfig) (client *Client) {
	client = &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		endpoint:    cfg.Endpoint,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}

	if client.model == "" {
		client.model = ClaudeModel
	}
	if client.temperature < 0 {
		client.temperature = defaultTemperature
	}
	if client.maxTokens <= 0 {
		client.maxTokens = defaultMaxTokens
	}
	if client.endpoint == "" {
		client.endpoint = ClaudeAPIEndpoint
	}
	if client.httpClient.Timeout <= 0 {
		client.httpClient.Timeout = defaultTimeout
	}

	return client
}

// Model returns the model name sent with each request.
func (c *Client) Model() (model string) {
	model = c.model
	return model
}

// Temperature returns the sampling temperature sent with each request.
func (c *Client) Temperature() (t float64) {
	t = c.temperature
	return t
}

// Optimize asks the model for résumé content tailored to the job description.
// The response must satisfy the content schema. Every failure is an *AIServiceError.
func (c *Client) Optimize(ctx context.Context, req OptimizeRequest) (resume content.Resume, err error) {
	if strings.TrimSpace(c.apiKey) == "" {
		err = &AIServiceError{Kind: KindAuth, Message: "no API key configured (set ANTHROPIC_API_KEY)"}
		return resume, err
	}
	if strings.TrimSpace(req.RawText) == "" && req.Prior == nil {
		err = &AIServiceError{Kind: KindRequest, Message: "no source text to optimize"}
		return resume, err
	}

	prompt := buildOptimizePrompt(req)

	var responseText string
	responseText, err = c.sendRequest(ctx, systemPrompt, prompt)
	if err != nil {
		return resume, err
	}

	cleaned := stripMarkdownCodeFences(strings.TrimSpace(responseText))

	resume, err = content.Decode([]byte(cleaned))
	if err != nil {
		err = &AIServiceError{Kind: KindResponse, Message: "model returned unusable content", Cause: err}
		return resume, err
	}

	return resume, err
}

// sendRequest sends a request to Claude API.
func (c *Client) sendRequest(ctx context.Context, system, prompt string) (responseText string, err error) {
	claudeReq := ClaudeRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Temperature: c.temperature,
		Messages: []Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	var reqBody []byte
	reqBody, err = json.Marshal(claudeReq)
	if err != nil {
		err = &AIServiceError{Kind: KindRequest, Message: "failed to marshal request", Cause: err}
		return responseText, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = &AIServiceError{Kind: KindRequest, Message: "failed to create HTTP request", Cause: err}
		return responseText, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", ClaudeAPIVersion)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = &AIServiceError{Kind: KindNetwork, Message: "HTTP request failed", Cause: errors.Wrapf(err, "POST %s", c.endpoint)}
		return responseText, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = &AIServiceError{Kind: KindNetwork, Message: "failed to read response body", Cause: err}
		return responseText, err
	}

	if resp.StatusCode != http.StatusOK {
		err = &AIServiceError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
		return responseText, err
	}

	var claudeResp ClaudeResponse
	err = json.Unmarshal(respBody, &claudeResp)
	if err != nil {
		err = &AIServiceError{Kind: KindResponse, Message: "failed to parse Claude response", Cause: err}
		return responseText, err
	}

	for _, block := range claudeResp.Content {
		if block.Type == "" || block.Type == "text" {
			responseText += block.Text
		}
	}

	if responseText == "" {
		err = &AIServiceError{Kind: KindResponse, Message: "no content in Claude response"}
		return responseText, err
	}

	if claudeResp.StopReason == "max_tokens" {
		err = &AIServiceError{Kind: KindResponse, Message: "response truncated at max_tokens; raise ai_max_tokens"}
		return responseText, err
	}

	return responseText, err
}

func errorMessage(body []byte) (msg string) {
	var apiErr ClaudeError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
		return msg
	}

	msg = strings.TrimSpace(string(body))
	if len(msg) > maxErrorBodyInMsg {
		msg = msg[:maxErrorBodyInMsg] + "..."
	}
	if msg == "" {
		msg = "empty response body"
	}
	return msg
}

// stripMarkdownCodeFences removes markdown code fences from JSON responses.
func stripMarkdownCodeFences(text string) (cleaned string) {
	cleaned = text

	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	// drop the opening fence line, which may carry a language tag
	newline := strings.IndexByte(cleaned, '\n')
	if newline < 0 {
		return cleaned
	}
	cleaned = cleaned[newline+1:]

	cleaned = strings.TrimRight(cleaned, " \r\n")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimRight(cleaned, " \r\n")

	return cleaned
}
