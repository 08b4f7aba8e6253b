// Package store provides storage backends for the chatbot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// GetChatState retrieves the persisted state for a chat, or nil when absent.
func (s *PostgresStore) GetChatState(chatID string) (*models.ChatState, error) {
	row := s.db.QueryRow(`SELECT state, data, last_update FROM user_state WHERE chat_id = $1`, chatID)
	state, err := scanChatState(chatID, row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetChatState not found", "chatID", chatID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetChatState failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query chat state for %s: %w", chatID, err)
	}
	slog.Debug("PostgresStore GetChatState succeeded", "chatID", chatID, "state", state.State)
	return state, nil
}

// SaveChatState inserts or overwrites the state record for a chat in a
// single atomic upsert.
func (s *PostgresStore) SaveChatState(state models.ChatState) error {
	dataJSON, err := marshalAnswers(state.Answers)
	if err != nil {
		slog.Error("PostgresStore SaveChatState marshal failed", "error", err, "chatID", state.ChatID)
		return fmt.Errorf("failed to marshal answers for %s: %w", state.ChatID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO user_state (chat_id, state, data, last_update)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (chat_id)
		DO UPDATE SET state = EXCLUDED.state, data = EXCLUDED.data, last_update = EXCLUDED.last_update`,
		state.ChatID, state.State.String(), dataJSON)
	if err != nil {
		slog.Error("PostgresStore SaveChatState failed", "error", err, "chatID", state.ChatID)
		return fmt.Errorf("failed to upsert chat state for %s: %w", state.ChatID, err)
	}
	slog.Debug("PostgresStore SaveChatState succeeded", "chatID", state.ChatID, "state", state.State)
	return nil
}

// AddMessage appends a transcript entry.
func (s *PostgresStore) AddMessage(msg models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (chat_id, sender, message) VALUES ($1, $2, $3)`,
		msg.ChatID, string(msg.Sender), msg.Body)
	if err != nil {
		slog.Error("PostgresStore AddMessage failed", "error", err, "chatID", msg.ChatID)
		return fmt.Errorf("failed to insert message for %s: %w", msg.ChatID, err)
	}
	slog.Debug("PostgresStore AddMessage succeeded", "chatID", msg.ChatID, "sender", msg.Sender)
	return nil
}

// GetRecentMessages returns the most recent limit entries for a chat,
// oldest first.
func (s *PostgresStore) GetRecentMessages(chatID string, limit int) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT sender, message, timestamp FROM messages
		WHERE chat_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`, chatID, limit)
	if err != nil {
		slog.Error("PostgresStore GetRecentMessages query failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", chatID, err)
	}
	defer rows.Close()

	messages, err := collectRecentMessages(chatID, rows)
	if err != nil {
		slog.Error("PostgresStore GetRecentMessages scan failed", "error", err, "chatID", chatID)
		return nil, err
	}
	slog.Debug("PostgresStore GetRecentMessages succeeded", "chatID", chatID, "count", len(messages))
	return messages, nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	return s.db.Close()
}
