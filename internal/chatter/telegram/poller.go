package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/Viktor-Uv/chatter/common/retry"
)

// DefaultPollTimeout is the server-side long-poll window in seconds.
const DefaultPollTimeout = 60

// UpdateHandler processes one inbound update. Handlers are invoked
// sequentially so replies within a chat keep their order.
type UpdateHandler func(ctx context.Context, update Update)

// Poller drives the getUpdates long-poll loop and dispatches each message
// update to the handler.
type Poller struct {
	client      *Client
	handler     UpdateHandler
	pollTimeout int
	retryCfg    retry.Config
}

// NewPoller returns a Poller for the given client and handler.
func NewPoller(client *Client, handler UpdateHandler) *Poller {
	return &Poller{
		client:      client,
		handler:     handler,
		pollTimeout: DefaultPollTimeout,
		retryCfg: retry.Config{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
		},
	}
}

// Run polls until ctx is cancelled. Transient getUpdates failures are retried
// with backoff; when a batch keeps failing the poller logs the error and
// starts a fresh batch rather than exiting.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64

	slog.Info("telegram poller: started", "poll_timeout_s", p.pollTimeout)

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("telegram poller: stopped")
			return nil
		}

		var updates []Update
		err := retry.Do(ctx, p.retryCfg, func() error {
			var pollErr error
			updates, pollErr = p.client.GetUpdates(ctx, offset, p.pollTimeout)
			return pollErr
		})
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("telegram poller: stopped")
				return nil
			}
			slog.Error("telegram poller: getUpdates failed after retries", "err", err)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil {
				continue
			}
			p.handler(ctx, update)
		}
	}
}
