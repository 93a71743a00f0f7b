// Package openai provides the completion and image-generation collaborators.
//
// Both providers share one error contract: any non-2xx response or in-body
// API error is returned as *APIError carrying the HTTP status code, the
// server's message, and the server-reported Date header. Failures that never
// reached the server (connection refused, DNS, timeout) are *APIError with
// status 0. The orchestration layer converts these into in-band diagnostic
// replies; nothing here retries.
package openai

import (
	"context"
	"fmt"
)

// Role is the role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a single completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Provider is the completion API collaborator.
type Provider interface {
	// Complete sends messages to the completion API and returns the
	// assistant's reply text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ImageSize is the fixed set of resolutions the image API accepts.
type ImageSize string

const (
	SizeSmall  ImageSize = "256x256"
	SizeMedium ImageSize = "512x512"
	SizeBig    ImageSize = "1024x1024"
)

// ImageProvider is the image-generation API collaborator.
type ImageProvider interface {
	// GenerateImage produces count images for the prompt and returns the URL
	// of the first one.
	GenerateImage(ctx context.Context, prompt string, size ImageSize, count int) (string, error)

	// FetchImage downloads the generated image bytes from the returned URL.
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// APIError is the failure shape shared by the completion and image APIs.
type APIError struct {
	// Op names the failing operation: "completion" or "image".
	Op string
	// StatusCode is the HTTP status of the failed call.
	StatusCode int
	// Message is the server-supplied error message.
	Message string
	// Timestamp is the server-reported Date header of the failed response.
	Timestamp string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("openai %s error: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Diagnostic renders the error in the user-facing form the bot sends as a
// chat reply instead of failing the turn.
func (e *APIError) Diagnostic() string {
	return fmt.Sprintf("OpenAI error...\nCode: %d\nMessage: %s\n%s", e.StatusCode, e.Message, e.Timestamp)
}
