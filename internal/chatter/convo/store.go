package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Viktor-Uv/chatter/internal/chatter/identity"
	"github.com/Viktor-Uv/chatter/internal/chatter/storage"
)

// ErrIdentityLookup wraps failures of the group-title lookup during record
// creation. No record is inserted when it occurs; the next inbound event for
// the same group retries naturally.
var ErrIdentityLookup = errors.New("convo: group title lookup failed")

// Resolver supplies the information a new group record needs from the
// messaging platform. The Telegram client implements it.
type Resolver interface {
	LookupGroupTitle(ctx context.Context, chatID int64) (string, error)
}

// Store owns all conversation records. Every read-modify-write-persist
// sequence runs under one mutex so that concurrent webhook deliveries can
// never observe the same pre-update dialog and lose an append. Network calls
// (completion, images) must happen outside Mutate.
type Store struct {
	mu       sync.Mutex
	records  map[string]*Record
	backend  storage.Backend
	resolver Resolver
	now      func() time.Time // injectable for tests
}

// NewStore creates an empty store over the given backend. Call Load before
// first use.
func NewStore(backend storage.Backend, resolver Resolver) *Store {
	return &Store{
		records:  make(map[string]*Record),
		backend:  backend,
		resolver: resolver,
		now:      time.Now,
	}
}

// Load reads the persisted snapshot into memory. A backend that has never
// been written yields an empty store, not an error. Called once at startup.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Load()
	if errors.Is(err, storage.ErrNotFound) {
		slog.Info("conversation store: no snapshot found, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("convo: load snapshot: %w", err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records = snap.Records
	s.mu.Unlock()

	slog.Info("conversation store loaded", "records", len(snap.Records))
	return nil
}

// Persist serializes the entire store and overwrites the backend's snapshot.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked must be called with mu held.
func (s *Store) persistLocked() error {
	data, err := encodeSnapshot(s.records)
	if err != nil {
		return err
	}
	if err := s.backend.Save(data); err != nil {
		return fmt.Errorf("convo: persist snapshot: %w", err)
	}
	return nil
}

// GetOrCreate returns a snapshot copy of the identity's record, creating it
// on first observation. Creation is idempotent: an existing record is
// returned unchanged regardless of seed. Group creation consults the
// Resolver; on lookup failure the error wraps ErrIdentityLookup and nothing
// is inserted.
func (s *Store) GetOrCreate(ctx context.Context, id identity.Identity, seed Seed) (*Record, error) {
	rec, err := s.Mutate(ctx, id, seed, nil)
	return rec, err
}

// Get returns a snapshot copy of the record for id, or nil when absent.
func (s *Store) Get(id identity.Identity) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id.Key()]
	if !ok {
		return nil
	}
	return rec.clone()
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Mutate runs fn against the live record for id under the store lock,
// creating the record first when absent, then persists the whole store. A nil
// fn makes Mutate a pure get-or-create. The returned record is a snapshot
// copy taken after fn ran.
//
// Persistence failures are logged and swallowed here: the in-memory update
// stands for the life of the process and the user-facing reply has usually
// already been sent. Only record-creation failures are returned.
func (s *Store) Mutate(ctx context.Context, id identity.Identity, seed Seed, fn func(*Record)) (*Record, error) {
	// Resolve the group title before taking the lock: the lookup is a network
	// call and must not serialize every other conversation behind it. The
	// result is only used when the record is still absent after locking.
	var groupTitle string
	if id.IsGroup() && !s.exists(id) {
		if s.resolver == nil {
			return nil, fmt.Errorf("%w: no resolver configured", ErrIdentityLookup)
		}
		title, err := s.resolver.LookupGroupTitle(ctx, id.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: chat %d: %v", ErrIdentityLookup, id.ID, err)
		}
		groupTitle = title
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id.Key()]
	if !ok {
		rec = s.newRecord(id, seed, groupTitle)
		s.records[id.Key()] = rec
		slog.Debug("conversation record created", "identity", id.Key())
	}

	if fn != nil {
		fn(rec)
	}

	if err := s.persistLocked(); err != nil {
		slog.Warn("conversation store: persist failed, in-memory state retained", "err", err)
	}

	return rec.clone(), nil
}

// exists reports whether a record for id is already present.
func (s *Store) exists(id identity.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id.Key()]
	return ok
}

// newRecord constructs the variant matching the identity kind. Must be called
// with mu held.
func (s *Store) newRecord(id identity.Identity, seed Seed, groupTitle string) *Record {
	rec := &Record{
		ID:          uuid.New().String(),
		Kind:        id.Kind,
		NumericID:   id.ID,
		Dialog:      []Entry{},
		Temperature: DefaultTemperature,
		CreatedAt:   s.now().UTC(),
	}
	if id.IsGroup() {
		rec.Title = groupTitle
	} else {
		rec.DisplayName = seed.DisplayName
		rec.Handle = seed.Handle
	}
	return rec
}
