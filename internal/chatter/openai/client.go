package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config configures the OpenAI-compatible client.
type Config struct {
	// APIKey is the bearer token for the API.
	APIKey string
	// BaseURL overrides the API endpoint (useful for compatible gateways).
	// Defaults to https://api.openai.com/v1.
	BaseURL string
	// Model is the default completion model when CompletionRequest.Model is
	// empty. Defaults to gpt-3.5-turbo.
	Model string
	// Timeout for each HTTP request. Defaults to 120s.
	Timeout time.Duration
}

// Client implements Provider and ImageProvider against the OpenAI HTTP API.
type Client struct {
	cfg    Config
	client *http.Client
}

// New returns a Client for the given configuration.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- wire types (subset of the OpenAI API) ---

type completionWireRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type completionWireResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *wireError `json:"error,omitempty"`
}

type imageWireRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageWireResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *wireError `json:"error,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends a chat completion request and returns the reply text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	body := completionWireRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var wresp completionWireResponse
	httpResp, err := c.post(ctx, "completion", "/chat/completions", body, &wresp)
	if err != nil {
		return "", err
	}
	if apiErr := asAPIError("completion", httpResp, wresp.Error); apiErr != nil {
		return "", apiErr
	}
	if len(wresp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in completion response (status %d)", httpResp.StatusCode)
	}
	return wresp.Choices[0].Message.Content, nil
}

// GenerateImage requests count images for the prompt and returns the first URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string, size ImageSize, count int) (string, error) {
	if count <= 0 {
		count = 1
	}

	body := imageWireRequest{
		Prompt: prompt,
		N:      count,
		Size:   string(size),
	}

	var wresp imageWireResponse
	httpResp, err := c.post(ctx, "image", "/images/generations", body, &wresp)
	if err != nil {
		return "", err
	}
	if apiErr := asAPIError("image", httpResp, wresp.Error); apiErr != nil {
		return "", apiErr
	}
	if len(wresp.Data) == 0 {
		return "", fmt.Errorf("openai: no images in generation response (status %d)", httpResp.StatusCode)
	}
	return wresp.Data[0].URL, nil
}

// FetchImage downloads the generated image from its URL.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError("image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Op:         "image",
			StatusCode: resp.StatusCode,
			Message:    "image download failed",
			Timestamp:  resp.Header.Get("Date"),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("image", err)
	}
	return data, nil
}

// post marshals body, sends it to path, and decodes the response into out.
// The *http.Response is returned so callers can inspect status and headers;
// its body has already been consumed.
//
// Failures below the HTTP layer (connection refused, DNS, timeout) come back
// as *APIError with status 0 so callers surface them the same in-band way as
// server-reported errors.
func (c *Client) post(ctx context.Context, op, path string, body, out any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, err)
	}

	// Error bodies are still JSON; a decode failure on a non-2xx status must
	// not mask the API error itself.
	if err := json.Unmarshal(respBody, out); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	return resp, nil
}

// transportError wraps a failure that never produced an HTTP status.
func transportError(op string, err error) *APIError {
	return &APIError{Op: op, StatusCode: 0, Message: err.Error()}
}

// asAPIError builds an *APIError when the response carries one, else nil.
func asAPIError(op string, resp *http.Response, werr *wireError) *APIError {
	if resp.StatusCode == http.StatusOK && werr == nil {
		return nil
	}
	msg := "unknown error"
	if werr != nil && werr.Message != "" {
		msg = werr.Message
	}
	status := resp.StatusCode
	if status == http.StatusOK {
		// In-body error with a 200 status; report it as a server error.
		status = http.StatusInternalServerError
	}
	return &APIError{
		Op:         op,
		StatusCode: status,
		Message:    msg,
		Timestamp:  resp.Header.Get("Date"),
	}
}
