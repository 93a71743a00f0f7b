package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Viktor-Uv/chatter/internal/chatter/convo"
	"github.com/Viktor-Uv/chatter/internal/chatter/identity"
	"github.com/Viktor-Uv/chatter/internal/chatter/openai"
)

const (
	imagineUsage = `Usage: "/imagine description".`
	startReply   = "Hello, I'm your new bot!"
	clearReply   = "Memory erased."
)

var (
	tempUsage = fmt.Sprintf(`Usage: "/temp temperature" (0 to %s)`, formatTemp(convo.MaxTemperature))

	helpReply = fmt.Sprintf(`Reply to my message with any text to get an AI response

Use "/temp number" to set the "temperature" (between 0 and %s, default is %s). Higher values will make the output more random, while lower values will make it more focused and deterministic. Using without parameter will display the "temperature" currently set

Use "/imagine description" to get an AI generated image

Use "/clear" to clear Bot's memory

Use "/start" for a welcome message

Use "/hello" to be greeted


Commands are case-sensitive!`, formatTemp(convo.MaxTemperature), formatTemp(convo.DefaultTemperature))
)

// Reply is the outcome of a handled command: either text or photo bytes.
type Reply struct {
	Text  string
	Photo []byte
}

// Incoming describes the message that triggered a command.
type Incoming struct {
	// Chat identifies the conversation the message arrived in.
	Chat identity.Identity
	// Sender identifies the user who sent it. In private chats Sender and
	// Chat share the same numeric ID.
	Sender identity.Identity
	// Seed carries the sender's display name and handle for record creation.
	Seed convo.Seed
	// FirstName is the sender's first name, used by /hello.
	FirstName string
	// Args are the whitespace-split command arguments.
	Args []string
}

// Handlers executes the bot's slash commands against the conversation store
// and the image provider.
type Handlers struct {
	store  *convo.Store
	images openai.ImageProvider
}

// NewHandlers returns the command handler set.
func NewHandlers(store *convo.Store, images openai.ImageProvider) *Handlers {
	return &Handlers{store: store, images: images}
}

// Dispatch routes a parsed command to its handler. The second return value is
// false when no handler matches the name, meaning the message should be
// treated as a conversational turn instead.
func (h *Handlers) Dispatch(ctx context.Context, name string, msg Incoming) (Reply, bool, error) {
	var (
		reply Reply
		err   error
	)
	switch name {
	case "temp":
		reply, err = h.Temp(ctx, msg)
	case "imagine":
		reply, err = h.Imagine(ctx, msg)
	case "clear":
		reply, err = h.Clear(ctx, msg)
	case "start":
		reply = Reply{Text: startReply}
	case "hello":
		reply = h.Hello(msg)
	case "help":
		reply = Reply{Text: helpReply}
	default:
		return Reply{}, false, nil
	}
	return reply, true, err
}

// Temp shows or sets the sampling temperature of the conversation. Out of
// range or unparseable values produce the usage reminder.
func (h *Handlers) Temp(ctx context.Context, msg Incoming) (Reply, error) {
	// The record is ensured first so even a malformed /temp registers the
	// conversation.
	rec, err := h.store.GetOrCreate(ctx, msg.Chat, msg.Seed)
	if err != nil {
		return Reply{}, err
	}

	if len(msg.Args) == 0 {
		return Reply{Text: fmt.Sprintf(`Parameter "temperature" is currently set to %s`, formatTemp(rec.Temperature))}, nil
	}

	temp, parseErr := strconv.ParseFloat(msg.Args[0], 64)
	if parseErr != nil || !(temp >= 0 && temp <= convo.MaxTemperature) {
		return Reply{Text: tempUsage}, nil
	}

	if _, err := h.store.Mutate(ctx, msg.Chat, msg.Seed, func(r *convo.Record) {
		r.Temperature = temp
	}); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf(`Parameter "temperature" is now set to %s`, formatTemp(temp))}, nil
}

// Imagine generates an image for the prompt and returns its bytes. The
// sender's request counter is incremented before the API call, so failed
// generations still count.
func (h *Handlers) Imagine(ctx context.Context, msg Incoming) (Reply, error) {
	if _, err := h.store.Mutate(ctx, msg.Sender, msg.Seed, func(r *convo.Record) {
		r.Requests++
	}); err != nil {
		return Reply{}, err
	}

	if len(msg.Args) == 0 {
		return Reply{Text: imagineUsage}, nil
	}
	prompt := strings.Join(msg.Args, " ")

	imageURL, err := h.images.GenerateImage(ctx, prompt, openai.SizeMedium, 1)
	if err != nil {
		return diagnosticReply(err)
	}

	photo, err := h.images.FetchImage(ctx, imageURL)
	if err != nil {
		return diagnosticReply(err)
	}
	return Reply{Photo: photo}, nil
}

// Clear erases the conversation's dialog window. Identity, temperature, and
// the request counter survive.
func (h *Handlers) Clear(ctx context.Context, msg Incoming) (Reply, error) {
	if _, err := h.store.Mutate(ctx, msg.Chat, msg.Seed, func(r *convo.Record) {
		r.Dialog = []convo.Entry{}
	}); err != nil {
		return Reply{}, err
	}
	return Reply{Text: clearReply}, nil
}

// Hello greets the sender by first name when one is known.
func (h *Handlers) Hello(msg Incoming) Reply {
	if msg.FirstName != "" {
		return Reply{Text: "Hello, " + msg.FirstName + "!"}
	}
	return Reply{Text: "Hello there!"}
}

// diagnosticReply converts an image API failure into the in-band reply the
// bot sends instead of failing the command. Non-API errors are returned
// unchanged.
func diagnosticReply(err error) (Reply, error) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return Reply{Text: apiErr.Diagnostic()}, nil
	}
	return Reply{}, err
}

// formatTemp renders a temperature without a trailing ".0" so whole values
// read as "1" and "2".
func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'g', -1, 64)
}
