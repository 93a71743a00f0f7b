// Package telegram implements a minimal Telegram Bot API client covering the
// calls the bot needs: sendMessage, sendPhoto, getChat, and getUpdates long
// polling. Webhook delivery is handled by the Handler in webhook.go.
//
// The bot token is part of every request URL, so transport errors produced by
// net/http would leak it into logs. All errors leaving this package have the
// token redacted.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Viktor-Uv/chatter/common/redact"
)

const defaultBaseURL = "https://api.telegram.org"

// Config configures the Bot API client.
type Config struct {
	// Token is the bot token issued by BotFather.
	Token string
	// BaseURL overrides the Bot API server. Defaults to
	// https://api.telegram.org.
	BaseURL string
	// Timeout applies to single-shot calls (sendMessage, sendPhoto, getChat).
	// Long polling uses its own timeout derived from the poll duration.
	// Defaults to 30s.
	Timeout time.Duration
}

// Client talks to the Telegram Bot API over HTTPS.
type Client struct {
	cfg        Config
	apiURL     string
	httpClient *http.Client
	pollClient *http.Client
}

// New returns a Client for the given configuration.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		apiURL:     cfg.BaseURL + "/bot" + cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		// The poll client must outlive the server-side long-poll window.
		pollClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// apiResponse is the generic Bot API response envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// SendMessage sends text to chatID. When replyTo is non-zero the message is
// sent as a reply to that message ID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if replyTo != 0 {
		payload["reply_to_message_id"] = replyTo
	}
	_, err := c.call(ctx, c.httpClient, "sendMessage", payload)
	return err
}

// SendPhoto uploads photo bytes to chatID as a multipart form. When replyTo
// is non-zero the photo is sent as a reply to that message ID.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, replyTo int64) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("telegram: build sendPhoto form: %w", err)
	}
	if replyTo != 0 {
		if err := mw.WriteField("reply_to_message_id", fmt.Sprintf("%d", replyTo)); err != nil {
			return fmt.Errorf("telegram: build sendPhoto form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("photo", "image.png")
	if err != nil {
		return fmt.Errorf("telegram: build sendPhoto form: %w", err)
	}
	if _, err := fw.Write(photo); err != nil {
		return fmt.Errorf("telegram: build sendPhoto form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("telegram: build sendPhoto form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/sendPhoto", &buf)
	if err != nil {
		return fmt.Errorf("telegram: build sendPhoto request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: sendPhoto request failed: %s", redact.Error(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	_, err = decodeResponse("sendPhoto", resp)
	return err
}

// GetChat fetches chat metadata for chatID.
func (c *Client) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	result, err := c.call(ctx, c.httpClient, "getChat", map[string]any{"chat_id": chatID})
	if err != nil {
		return nil, err
	}
	var chat Chat
	if err := json.Unmarshal(result, &chat); err != nil {
		return nil, fmt.Errorf("telegram: parse getChat result: %w", err)
	}
	return &chat, nil
}

// LookupGroupTitle returns the title of the group chat identified by chatID.
// It satisfies the conversation store's resolver interface.
func (c *Client) LookupGroupTitle(ctx context.Context, chatID int64) (string, error) {
	chat, err := c.GetChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	return chat.Title, nil
}

// GetUpdates long-polls for new updates starting at offset. The server holds
// the request open for up to timeoutSeconds before returning an empty batch.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	result, err := c.call(ctx, c.pollClient, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         timeoutSeconds,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("telegram: parse getUpdates result: %w", err)
	}
	return updates, nil
}

// call POSTs payload as JSON to the named Bot API method and returns the
// result field of the response envelope.
func (c *Client) call(ctx context.Context, client *http.Client, method string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// The wrapped url.Error carries the full request URL, token included.
		return nil, fmt.Errorf("telegram: %s request failed: %s", method, redact.Error(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	return decodeResponse(method, resp)
}

// decodeResponse reads the Bot API envelope and surfaces ok:false responses
// as errors carrying the API description.
func decodeResponse(method string, resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("telegram: parse %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("telegram: %s failed: %d %s", method, envelope.ErrorCode, envelope.Description)
	}
	return envelope.Result, nil
}
