// Package store provides storage backends for the chatbot.
//
// It persists the per-chat conversation state (user_state, upsert-on-conflict)
// and the append-only message transcript (messages), with in-memory, SQLite,
// and PostgreSQL implementations selected by DSN.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// Store is the persistence boundary used by the conversation router.
type Store interface {
	// GetChatState returns the persisted state for a chat, or nil when the
	// chat has no record yet.
	GetChatState(chatID string) (*models.ChatState, error)

	// SaveChatState inserts or overwrites the state record for a chat.
	SaveChatState(state models.ChatState) error

	// AddMessage appends a transcript entry. Entries are never mutated.
	AddMessage(msg models.Message) error

	// GetRecentMessages returns the most recent limit entries for a chat in
	// chronological order (oldest first).
	GetRecentMessages(chatID string, limit int) ([]models.Message, error)

	// Close releases the underlying resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" otherwise (plain file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore creates the backend matching the configured DSN: PostgreSQL for
// connection strings, SQLite for file paths, in-memory when no DSN is set.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}

// InMemoryStore is a simple in-memory store used in tests and when no
// database DSN is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	states   map[string]models.ChatState
	messages []models.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]models.ChatState)}
}

// GetChatState returns the stored state for a chat, or nil when absent.
func (s *InMemoryStore) GetChatState(chatID string) (*models.ChatState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	// Copy the answers map so callers cannot mutate stored state.
	cp := state
	cp.Answers = make(map[int]string, len(state.Answers))
	for k, v := range state.Answers {
		cp.Answers[k] = v
	}
	return &cp, nil
}

// SaveChatState inserts or overwrites the state record for a chat.
func (s *InMemoryStore) SaveChatState(state models.ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.LastUpdate.IsZero() {
		state.LastUpdate = time.Now()
	}
	cp := state
	cp.Answers = make(map[int]string, len(state.Answers))
	for k, v := range state.Answers {
		cp.Answers[k] = v
	}
	s.states[state.ChatID] = cp
	return nil
}

// AddMessage appends a transcript entry.
func (s *InMemoryStore) AddMessage(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	s.messages = append(s.messages, msg)
	return nil
}

// GetRecentMessages returns the most recent limit entries for a chat,
// oldest first.
func (s *InMemoryStore) GetRecentMessages(chatID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			all = append(all, m)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
