package telegram

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxWebhookBody caps inbound webhook request bodies to prevent memory
// exhaustion from oversized payloads.
const maxWebhookBody = 1 * 1024 * 1024 // 1 MiB

// Handler accepts webhook deliveries from the Bot API and dispatches message
// updates to an UpdateHandler. Mount it at the path registered with
// setWebhook.
type Handler struct {
	handler UpdateHandler
	// secret, when non-empty, must match the X-Telegram-Bot-Api-Secret-Token
	// header on every delivery.
	secret string
}

// NewHandler returns a webhook Handler. Pass an empty secret to disable
// secret-token validation.
func NewHandler(handler UpdateHandler, secret string) *Handler {
	return &Handler{handler: handler, secret: secret}
}

// ServeHTTP implements http.Handler. Updates are processed before the 200
// response is written so Telegram does not redeliver a half-handled update
// after a crash.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.secret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.secret {
		slog.Info("telegram webhook: secret token mismatch", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		slog.Warn("telegram webhook: failed to read request body", "err", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		slog.Warn("telegram webhook: malformed update", "err", err)
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}

	if update.Message != nil {
		h.handler(r.Context(), update)
	}

	w.WriteHeader(http.StatusOK)
}
