// Package store provides storage backends for the chatbot.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetChatState retrieves the persisted state for a chat, or nil when absent.
func (s *SQLiteStore) GetChatState(chatID string) (*models.ChatState, error) {
	row := s.db.QueryRow(`SELECT state, data, last_update FROM user_state WHERE chat_id = ?`, chatID)
	state, err := scanChatState(chatID, row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetChatState not found", "chatID", chatID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetChatState failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query chat state for %s: %w", chatID, err)
	}
	slog.Debug("SQLiteStore GetChatState succeeded", "chatID", chatID, "state", state.State)
	return state, nil
}

// SaveChatState inserts or overwrites the state record for a chat in a
// single atomic upsert.
func (s *SQLiteStore) SaveChatState(state models.ChatState) error {
	dataJSON, err := marshalAnswers(state.Answers)
	if err != nil {
		slog.Error("SQLiteStore SaveChatState marshal failed", "error", err, "chatID", state.ChatID)
		return fmt.Errorf("failed to marshal answers for %s: %w", state.ChatID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO user_state (chat_id, state, data, last_update)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (chat_id)
		DO UPDATE SET state = excluded.state, data = excluded.data, last_update = excluded.last_update`,
		state.ChatID, state.State.String(), dataJSON)
	if err != nil {
		slog.Error("SQLiteStore SaveChatState failed", "error", err, "chatID", state.ChatID)
		return fmt.Errorf("failed to upsert chat state for %s: %w", state.ChatID, err)
	}
	slog.Debug("SQLiteStore SaveChatState succeeded", "chatID", state.ChatID, "state", state.State)
	return nil
}

// AddMessage appends a transcript entry.
func (s *SQLiteStore) AddMessage(msg models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (chat_id, sender, message) VALUES (?, ?, ?)`,
		msg.ChatID, string(msg.Sender), msg.Body)
	if err != nil {
		slog.Error("SQLiteStore AddMessage failed", "error", err, "chatID", msg.ChatID)
		return fmt.Errorf("failed to insert message for %s: %w", msg.ChatID, err)
	}
	slog.Debug("SQLiteStore AddMessage succeeded", "chatID", msg.ChatID, "sender", msg.Sender)
	return nil
}

// GetRecentMessages returns the most recent limit entries for a chat,
// oldest first.
func (s *SQLiteStore) GetRecentMessages(chatID string, limit int) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT sender, message, timestamp FROM messages
		WHERE chat_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, chatID, limit)
	if err != nil {
		slog.Error("SQLiteStore GetRecentMessages query failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", chatID, err)
	}
	defer rows.Close()

	messages, err := collectRecentMessages(chatID, rows)
	if err != nil {
		slog.Error("SQLiteStore GetRecentMessages scan failed", "error", err, "chatID", chatID)
		return nil, err
	}
	slog.Debug("SQLiteStore GetRecentMessages succeeded", "chatID", chatID, "count", len(messages))
	return messages, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

// marshalAnswers serializes the answers map for the data column. An empty
// map is stored as NULL to match the original schema.
func marshalAnswers(answers map[int]string) (interface{}, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
