// Package models defines the core data structures for the Spirito Santo chatbot.
//
// It includes the per-chat conversation state, transcript entries, webhook
// payload shapes, and the JSON envelope shared across HTTP handlers.
package models

import (
	"errors"
	"time"
)

// Sender identifies the author of a transcript entry.
type Sender string

const (
	// SenderUser marks a transcript entry authored by the chat user.
	SenderUser Sender = "user"
	// SenderBot marks a transcript entry authored by the bot.
	SenderBot Sender = "bot"
)

// BroadcastStatusJID is the WhatsApp pseudo-sender for status broadcasts.
// Messages from this sender are acknowledged and otherwise ignored.
const BroadcastStatusJID = "status@broadcast"

// DefaultHistoryLimit is the default bounded history window used to ground
// AI answers (most recent N transcript entries).
const DefaultHistoryLimit = 10

// Error variables for better error handling and testability
var (
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
	ErrEmptyBody      = errors.New("message body cannot be empty")
	ErrEmptyChatID    = errors.New("chat id cannot be empty")
)

// Message is a single append-only transcript entry for a chat.
type Message struct {
	ChatID string    `json:"chat_id"`
	Sender Sender    `json:"sender"`
	Body   string    `json:"message"`
	Time   time.Time `json:"timestamp"`
}

// ChatState is the persisted conversation state for one chat.
// Exactly one record exists per chat id; a missing record reads as the
// menu state with no collected answers.
type ChatState struct {
	ChatID     string         `json:"chat_id"`
	State      State          `json:"state"`
	Answers    map[int]string `json:"answers,omitempty"`
	LastUpdate time.Time      `json:"last_update"`
}

// DefaultChatState returns the state used when no record exists for a chat.
func DefaultChatState(chatID string) ChatState {
	return ChatState{
		ChatID:  chatID,
		State:   MenuState(),
		Answers: make(map[int]string),
	}
}

// IncomingMessage represents an inbound message from any transport
// (WAHA webhook, whatsmeow event, Twilio webhook).
type IncomingMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}

// WebhookPayload is the message payload of a WAHA webhook event.
type WebhookPayload struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// WebhookEvent is the recognized inbound webhook shape. Events other than
// "message", or events without a payload, are acknowledged and ignored.
type WebhookEvent struct {
	Event   string          `json:"event"`
	Payload *WebhookPayload `json:"payload"`
}

// Webhook acknowledgment statuses. The webhook contract always answers
// HTTP 200 with one of these for parseable input.
const (
	WebhookStatusReceived = "received"
	WebhookStatusIgnored  = "ignored"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Received builds the webhook acknowledgment for a processed or unrecognized event.
func Received() APIResponse {
	return APIResponse{Status: WebhookStatusReceived}
}

// Ignored builds the webhook acknowledgment for filtered messages.
func Ignored() APIResponse {
	return APIResponse{Status: WebhookStatusIgnored}
}

// Success builds a successful API response with result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: "ok", Result: result}
}

// Error builds an error API response with the given message.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Message: message}
}
