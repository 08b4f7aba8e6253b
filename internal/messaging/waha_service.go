package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// Constants for the WAHA gateway service.
const (
	// DefaultWAHASession is the WAHA session name used when none is configured.
	DefaultWAHASession = "default"
	// DefaultWAHATimeout bounds a single gateway request.
	DefaultWAHATimeout = 10 * time.Second
	// wahaSendTextPath is the WAHA endpoint for sending a text message.
	wahaSendTextPath = "/api/sendText"
)

// WAHAOpts holds configuration options for the WAHA gateway service.
type WAHAOpts struct {
	BaseURL    string
	Session    string
	HTTPClient *http.Client
}

// WAHAOption defines a configuration option for the WAHA gateway service.
type WAHAOption func(*WAHAOpts)

// WithWAHABaseURL sets the gateway base URL.
func WithWAHABaseURL(url string) WAHAOption {
	return func(o *WAHAOpts) {
		o.BaseURL = url
	}
}

// WithWAHASession sets the gateway session name.
func WithWAHASession(session string) WAHAOption {
	return func(o *WAHAOpts) {
		o.Session = session
	}
}

// WithWAHAHTTPClient sets a custom HTTP client (used in tests).
func WithWAHAHTTPClient(client *http.Client) WAHAOption {
	return func(o *WAHAOpts) {
		o.HTTPClient = client
	}
}

// sendTextRequest is the WAHA sendText wire format.
type sendTextRequest struct {
	Session string `json:"session"`
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
}

// WAHAService implements Service against a WAHA (WhatsApp HTTP API)
// gateway. Inbound messages for this transport arrive through the HTTP
// webhook, so the incoming channel stays idle.
type WAHAService struct {
	baseURL  string
	session  string
	client   *http.Client
	incoming chan models.IncomingMessage
}

// NewWAHAService creates a WAHA gateway service. The base URL is required.
func NewWAHAService(opts ...WAHAOption) (*WAHAService, error) {
	cfg := WAHAOpts{Session: DefaultWAHASession}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("WAHA base URL not set")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultWAHATimeout}
	}
	slog.Debug("WAHAService created", "base_url", cfg.BaseURL, "session", cfg.Session)
	return &WAHAService{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		session:  cfg.Session,
		client:   cfg.HTTPClient,
		incoming: make(chan models.IncomingMessage),
	}, nil
}

// SendMessage posts a sendText request to the gateway.
func (s *WAHAService) SendMessage(ctx context.Context, to string, body string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	if body == "" {
		return models.ErrEmptyBody
	}

	payload, err := json.Marshal(sendTextRequest{Session: s.session, ChatID: to, Text: body})
	if err != nil {
		return fmt.Errorf("failed to encode sendText payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+wahaSendTextPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sendText request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("WAHAService SendMessage request failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("WAHAService SendMessage gateway error", "status", resp.StatusCode, "to", to)
		return fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, to)
	}

	slog.Debug("WAHAService message sent", "to", to, "body_length", len(body))
	return nil
}

// Start is a no-op for the gateway transport.
func (s *WAHAService) Start(ctx context.Context) error {
	slog.Debug("WAHAService Start invoked (no background processing)")
	return nil
}

// Stop closes the (idle) incoming channel.
func (s *WAHAService) Stop() error {
	slog.Debug("WAHAService Stop invoked")
	close(s.incoming)
	return nil
}

// Incoming returns the idle inbound channel; WAHA inbound traffic arrives
// through the HTTP webhook.
func (s *WAHAService) Incoming() <-chan models.IncomingMessage {
	return s.incoming
}
