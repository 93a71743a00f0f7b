// Package identity defines the keys under which conversation state is
// partitioned. An identity is decided once at ingestion from the transport's
// own chat-type field; downstream code never infers user-vs-group from the
// sign of a numeric ID.
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the two record shapes.
type Kind string

const (
	// KindUser identifies an individual Telegram user.
	KindUser Kind = "user"
	// KindGroup identifies a group or supergroup chat.
	KindGroup Kind = "group"
)

// Identity is the key for one conversation record: either an individual user
// or a group chat. The zero value is not a valid identity.
type Identity struct {
	Kind Kind
	ID   int64
}

// User returns the identity of an individual user.
func User(id int64) Identity {
	return Identity{Kind: KindUser, ID: id}
}

// Group returns the identity of a group chat.
func Group(id int64) Identity {
	return Identity{Kind: KindGroup, ID: id}
}

// FromChatType maps a Telegram chat type ("private", "group", "supergroup",
// "channel") and chat ID to an identity. Private chats are individual
// identities; everything else is a group identity.
func FromChatType(chatType string, chatID int64) Identity {
	if chatType == "private" {
		return User(chatID)
	}
	return Group(chatID)
}

// IsGroup reports whether the identity addresses a group chat.
func (i Identity) IsGroup() bool {
	return i.Kind == KindGroup
}

// Key returns the stable storage key, e.g. "user:42" or "group:-100123".
func (i Identity) Key() string {
	return string(i.Kind) + ":" + strconv.FormatInt(i.ID, 10)
}

// ParseKey is the inverse of Key. It rejects unknown kinds and malformed IDs.
func ParseKey(key string) (Identity, error) {
	kind, idStr, ok := strings.Cut(key, ":")
	if !ok {
		return Identity{}, fmt.Errorf("identity: malformed key %q", key)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: malformed key %q: %w", key, err)
	}
	switch Kind(kind) {
	case KindUser, KindGroup:
		return Identity{Kind: Kind(kind), ID: id}, nil
	default:
		return Identity{}, fmt.Errorf("identity: unknown kind in key %q", key)
	}
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	return i.Key()
}
