// Package convo implements the bot's conversation state: identity-keyed
// records, the bounded FIFO dialog window, and the sentence-boundary text
// summarizer applied before storage. Records are owned exclusively by the
// Store; callers receive snapshot copies and mutate through Store.Mutate.
package convo

import (
	"time"

	"github.com/Viktor-Uv/chatter/internal/chatter/identity"
)

// Dialog entry roles. Entries are always appended in user/assistant pairs.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Default tuning constants, mirrored by config.
const (
	// DefaultTemperature is the sampling temperature a fresh record starts with.
	DefaultTemperature = 1.0
	// MaxTemperature is the upper bound accepted by the /temp command.
	MaxTemperature = 2.0
	// MaxDialogSize is the number of retained user/assistant pairs.
	MaxDialogSize = 5
	// MinSummaryChars is the scan threshold for Summarize.
	MinSummaryChars = 250
)

// Entry is a single dialog line: one role, summarized content.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is the per-identity conversation state. The Kind field discriminates
// the two shapes: user records carry DisplayName/Handle/Requests, group
// records carry Title. Both share Dialog and Temperature.
type Record struct {
	ID          string        `json:"id"` // UUID assigned at creation
	Kind        identity.Kind `json:"kind"`
	NumericID   int64         `json:"numeric_id"`
	DisplayName string        `json:"display_name,omitempty"` // user records
	Handle      string        `json:"handle,omitempty"`       // user records, may be empty
	Title       string        `json:"title,omitempty"`        // group records
	Dialog      []Entry       `json:"dialog"`
	Temperature float64       `json:"temperature"`
	Requests    int64         `json:"requests,omitempty"` // user records only
	CreatedAt   time.Time     `json:"created_at"`
}

// Seed carries the information needed to construct a new user record. It is
// populated from the inbound message; group records are seeded through the
// Resolver instead.
type Seed struct {
	DisplayName string
	Handle      string
}

// clone returns a deep copy of the record so that callers can never reach the
// store-owned dialog slice.
func (r *Record) clone() *Record {
	cp := *r
	cp.Dialog = make([]Entry, len(r.Dialog))
	copy(cp.Dialog, r.Dialog)
	return &cp
}
