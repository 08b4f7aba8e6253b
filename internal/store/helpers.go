package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// scanChatState scans a user_state row (state, data, last_update) into a
// ChatState. A corrupted state value falls back to the menu state; corrupted
// answer data falls back to an empty map. Both are logged, never fatal.
func scanChatState(chatID string, row *sql.Row) (*models.ChatState, error) {
	var rawState string
	var data sql.NullString
	var lastUpdate time.Time
	if err := row.Scan(&rawState, &data, &lastUpdate); err != nil {
		return nil, err
	}

	state, ok := models.ParseState(rawState)
	if !ok {
		slog.Warn("store: unknown persisted state, resetting to menu", "chatID", chatID, "raw_state", rawState)
	}

	answers := make(map[int]string)
	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &answers); err != nil {
			slog.Warn("store: failed to decode persisted answers, starting empty", "chatID", chatID, "error", err)
			answers = make(map[int]string)
		}
	}

	return &models.ChatState{
		ChatID:     chatID,
		State:      state,
		Answers:    answers,
		LastUpdate: lastUpdate,
	}, nil
}

// collectRecentMessages drains a most-recent-first result set (sender,
// message, timestamp) and returns the entries in chronological order.
func collectRecentMessages(chatID string, rows *sql.Rows) ([]models.Message, error) {
	var newestFirst []models.Message
	for rows.Next() {
		var m models.Message
		var sender string
		if err := rows.Scan(&sender, &m.Body, &m.Time); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		m.ChatID = chatID
		m.Sender = models.Sender(sender)
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	// Reverse into chronological order, oldest first.
	messages := make([]models.Message, len(newestFirst))
	for i, m := range newestFirst {
		messages[len(newestFirst)-1-i] = m
	}
	return messages, nil
}
