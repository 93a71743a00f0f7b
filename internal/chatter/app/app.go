// Package app wires the bot together: configuration, storage, the
// conversation store, the OpenAI providers, the command handlers, and the
// Telegram transport in either poll or webhook mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Viktor-Uv/chatter/common/redact"
	"github.com/Viktor-Uv/chatter/common/trace"
	"github.com/Viktor-Uv/chatter/internal/chatter/commands"
	"github.com/Viktor-Uv/chatter/internal/chatter/config"
	"github.com/Viktor-Uv/chatter/internal/chatter/convo"
	"github.com/Viktor-Uv/chatter/internal/chatter/identity"
	"github.com/Viktor-Uv/chatter/internal/chatter/observability"
	"github.com/Viktor-Uv/chatter/internal/chatter/openai"
	"github.com/Viktor-Uv/chatter/internal/chatter/orchestrator"
	"github.com/Viktor-Uv/chatter/internal/chatter/storage"
	"github.com/Viktor-Uv/chatter/internal/chatter/telegram"
)

// closer is implemented by backends that hold resources (the SQLite one).
type closer interface {
	Close() error
}

// App is the assembled bot.
type App struct {
	cfg      config.Config
	tg       *telegram.Client
	store    *convo.Store
	backend  storage.Backend
	handlers *commands.Handlers
	orch     *orchestrator.Orchestrator
}

// New builds the application from its configuration. It does not touch the
// network; the first calls happen in Run.
func New(cfg config.Config) (*App, error) {
	observability.Setup(cfg.Log.Level, cfg.Log.Format)

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		sqlBackend, err := storage.NewSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		backend = sqlBackend
	default:
		backend = storage.NewFile(cfg.Storage.Path)
	}

	tg := telegram.New(telegram.Config{
		Token:   cfg.Telegram.Token,
		BaseURL: cfg.Telegram.BaseURL,
		Timeout: cfg.Telegram.Timeout,
	})

	store := convo.NewStore(backend, tg)

	oai := openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})

	return &App{
		cfg:      cfg,
		tg:       tg,
		store:    store,
		backend:  backend,
		handlers: commands.NewHandlers(store, oai),
		orch: orchestrator.New(store, oai,
			orchestrator.WithWindow(cfg.Dialog.MaxPairs, cfg.Dialog.MinSummaryChars)),
	}, nil
}

// Run loads the conversation snapshot and serves updates until an interrupt
// or termination signal arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := a.store.Load(ctx); err != nil {
		return fmt.Errorf("load conversation snapshot: %w", err)
	}
	slog.Info("conversation snapshot loaded", "records", a.store.Len())

	switch a.cfg.Telegram.Mode {
	case config.ModeWebhook:
		return a.runWebhook(ctx)
	default:
		return telegram.NewPoller(a.tg, a.handleUpdate).Run(ctx)
	}
}

// Stop releases held resources. Safe to call after Run returns.
func (a *App) Stop() {
	if c, ok := a.backend.(closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("storage close failed", "err", err)
		}
	}
}

// runWebhook serves POST /telegram/webhook until ctx is cancelled.
func (a *App) runWebhook(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/telegram/webhook", telegram.NewHandler(a.handleUpdate, a.cfg.Telegram.WebhookSecret))

	srv := &http.Server{
		Addr:              a.cfg.Telegram.WebhookAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("webhook server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown: %w", err)
		}
		return nil
	}
}

// handleUpdate processes one inbound update end to end: command dispatch or
// conversational turn, then the reply. Errors never escape; a failed update
// is logged and the loop moves on.
func (a *App) handleUpdate(ctx context.Context, upd telegram.Update) {
	msg := upd.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}

	ctx = trace.WithTraceID(ctx, trace.GenerateID())
	log := observability.WithTrace(ctx)

	chat := identity.FromChatType(msg.Chat.Type, msg.Chat.ID)
	sender := identity.User(msg.From.ID)
	seed := convo.Seed{
		DisplayName: fullName(msg.From),
		Handle:      msg.From.Username,
	}

	log.Debug("update received", "chat", chat.Key(), "update_id", upd.UpdateID)

	if cmd, ok := commands.Parse(msg.Text, a.cfg.Telegram.BotName); ok {
		incoming := commands.Incoming{
			Chat:      chat,
			Sender:    sender,
			Seed:      seed,
			FirstName: msg.From.FirstName,
			Args:      cmd.Args,
		}
		reply, handled, err := a.handlers.Dispatch(ctx, cmd.Name, incoming)
		if err != nil {
			log.Error("command failed", "command", cmd.Name,
				"err", redact.Error(err, a.cfg.Telegram.Token, a.cfg.OpenAI.APIKey))
			a.sendText(ctx, msg, botErrorReply(err, a.cfg.Telegram.Token))
			return
		}
		if handled {
			a.sendReply(ctx, msg, reply)
			return
		}
		// Unmatched commands read as ordinary text.
	}

	text, err := a.orch.Respond(ctx, orchestrator.Turn{
		Chat:   chat,
		Sender: sender,
		Seed:   seed,
		Text:   msg.Text,
	})
	if err != nil {
		log.Error("conversational turn failed", "chat", chat.Key(),
			"err", redact.Error(err, a.cfg.Telegram.Token, a.cfg.OpenAI.APIKey))
		// A failed turn still answers: identity lookups, creation errors, and
		// anything else that escapes the in-band diagnostic path get the
		// fallback reply rather than silence.
		a.sendText(ctx, msg, botErrorReply(err, a.cfg.Telegram.Token))
		return
	}
	a.sendText(ctx, msg, text)
}

// sendReply delivers a command outcome, photo or text.
func (a *App) sendReply(ctx context.Context, msg *telegram.Message, reply commands.Reply) {
	if len(reply.Photo) > 0 {
		if err := a.tg.SendPhoto(ctx, msg.Chat.ID, reply.Photo, msg.MessageID); err != nil {
			observability.WithTrace(ctx).Error("photo send failed",
				"chat", msg.Chat.ID, "err", redact.Error(err, a.cfg.Telegram.Token))
		}
		return
	}
	if reply.Text != "" {
		a.sendText(ctx, msg, reply.Text)
	}
}

// sendText replies with text. When the send fails the failure itself is
// reported to the chat as a fallback reply; if that fails too it is only
// logged.
func (a *App) sendText(ctx context.Context, msg *telegram.Message, text string) {
	err := a.tg.SendMessage(ctx, msg.Chat.ID, text, msg.MessageID)
	if err == nil {
		return
	}
	log := observability.WithTrace(ctx)
	log.Error("text send failed", "chat", msg.Chat.ID, "err", redact.Error(err, a.cfg.Telegram.Token))

	fallback := botErrorReply(err, a.cfg.Telegram.Token)
	if err := a.tg.SendMessage(ctx, msg.Chat.ID, fallback, msg.MessageID); err != nil {
		log.Error("fallback send failed", "chat", msg.Chat.ID, "err", redact.Error(err, a.cfg.Telegram.Token))
	}
}

// botErrorReply renders a transport failure as an in-band reply, token
// stripped.
func botErrorReply(err error, token string) string {
	return fmt.Sprintf("Telegram Bot error...\nMessage: %s\n%s",
		redact.Error(err, token), time.Now().UTC().Format(http.TimeFormat))
}

// fullName joins the sender's first and last name.
func fullName(u *telegram.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
