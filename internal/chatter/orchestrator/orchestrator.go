// Package orchestrator drives the conversational turn: it threads the stored
// dialog window and the persona prompt through the completion API and folds
// the reply back into the conversation store.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Viktor-Uv/chatter/internal/chatter/convo"
	"github.com/Viktor-Uv/chatter/internal/chatter/identity"
	"github.com/Viktor-Uv/chatter/internal/chatter/openai"
)

// knowledgeCutoff is the model-knowledge statement embedded in the persona.
const knowledgeCutoff = "Up to Sep 2021"

// timeLayout renders the persona timestamp, e.g. "Mon, 02-Jan-2006 15:04 UTC".
const timeLayout = "Mon, 02-Jan-2006 15:04 UTC"

// maxCompletionTokens bounds the length of a single generated reply.
const maxCompletionTokens = 1024

// Turn is one inbound conversational message.
type Turn struct {
	// Chat identifies the conversation the reply belongs to.
	Chat identity.Identity
	// Sender identifies the user whose request counter is bumped.
	Sender identity.Identity
	// Seed carries the sender's display name and handle for record creation.
	Seed convo.Seed
	// Text is the raw message text.
	Text string
}

// Orchestrator turns inbound messages into completion-backed replies.
type Orchestrator struct {
	store    *convo.Store
	provider openai.Provider

	// maxPairs and minSummaryChars configure the dialog window; zero values
	// fall back to the convo package defaults.
	maxPairs        int
	minSummaryChars int

	now func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithWindow overrides the dialog window size and the summarizer threshold.
func WithWindow(maxPairs, minSummaryChars int) Option {
	return func(o *Orchestrator) {
		o.maxPairs = maxPairs
		o.minSummaryChars = minSummaryChars
	}
}

// WithClock injects the time source used for the persona timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an Orchestrator over the given store and completion provider.
func New(store *convo.Store, provider openai.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond handles one conversational turn and returns the reply text.
//
// Completion API failures do not fail the turn: the error is rendered as a
// diagnostic reply and recorded in the dialog window like any assistant
// answer, so the conversation keeps flowing. Only record-creation failures
// and non-API transport errors are returned.
func (o *Orchestrator) Respond(ctx context.Context, turn Turn) (string, error) {
	// The sender's request counter is tracked on their user record even when
	// the conversation itself is a group chat.
	if _, err := o.store.Mutate(ctx, turn.Sender, turn.Seed, func(r *convo.Record) {
		r.Requests++
	}); err != nil {
		return "", fmt.Errorf("track sender: %w", err)
	}

	rec, err := o.store.GetOrCreate(ctx, turn.Chat, turn.Seed)
	if err != nil {
		return "", fmt.Errorf("load conversation: %w", err)
	}

	messages := make([]openai.Message, 0, len(rec.Dialog)+2)
	messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: o.persona()})
	for _, entry := range rec.Dialog {
		messages = append(messages, openai.Message{Role: openai.Role(entry.Role), Content: entry.Content})
	}
	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: turn.Text})

	reply, err := o.provider.Complete(ctx, openai.CompletionRequest{
		Messages:    messages,
		Temperature: rec.Temperature,
		MaxTokens:   maxCompletionTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if !errors.As(err, &apiErr) {
			return "", fmt.Errorf("completion: %w", err)
		}
		slog.Warn("orchestrator: completion failed, replying with diagnostic",
			"identity", turn.Chat.Key(), "status", apiErr.StatusCode)
		reply = apiErr.Diagnostic()
	}

	// The raw user text and the reply (diagnostic included) both enter the
	// window summarized.
	if _, err := o.store.Mutate(ctx, turn.Chat, turn.Seed, func(r *convo.Record) {
		convo.AppendTurn(r, turn.Text, reply, o.maxPairs, o.minSummaryChars)
	}); err != nil {
		return "", fmt.Errorf("record turn: %w", err)
	}

	return reply, nil
}

// persona builds the system message that fronts every completion request.
func (o *Orchestrator) persona() string {
	currentTime := o.now().UTC().Format(timeLayout)
	return fmt.Sprintf("Your name is Chatter. You are a friendly Telegram bot. "+
		"You were created by Viktor Uvarchev. You generate text using OpenAI API. "+
		"Knowledge cutoff: %s. Current date and time: %s. "+
		"You can generate text when user talks to you and generate images when user sends /imagine command, "+
		"suggest to use '/help' for list of commands", knowledgeCutoff, currentTime)
}
