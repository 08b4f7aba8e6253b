package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// TwilioOpts holds configuration options for the Twilio WhatsApp service.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromNumber string // WhatsApp number in "whatsapp:+1234567890" format
}

// TwilioOption defines a configuration option for the Twilio WhatsApp service.
type TwilioOption func(*TwilioOpts)

// WithTwilioAccountSID sets the Twilio account SID.
func WithTwilioAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithTwilioAuthToken sets the Twilio auth token.
func WithTwilioAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithTwilioFromNumber sets the sending WhatsApp number.
func WithTwilioFromNumber(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromNumber = from }
}

// twilioMessageCreator is the minimal Twilio REST surface used by the service.
type twilioMessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService implements Service using the Twilio WhatsApp API. Inbound
// messages arrive through InboundWebhookHandler and are forwarded on the
// incoming channel.
type TwilioService struct {
	api      twilioMessageCreator
	from     string
	incoming chan models.IncomingMessage
	mu       sync.RWMutex
	stopped  bool
}

// NewTwilioService creates a Twilio WhatsApp service. Credentials come from
// options or the TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN / TWILIO_FROM_NUMBER
// environment variables.
func NewTwilioService(opts ...TwilioOption) (*TwilioService, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio service config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		api:      client.Api,
		from:     cfg.FromNumber,
		incoming: make(chan models.IncomingMessage, DefaultChannelBufferSize),
	}, nil
}

// SendMessage sends a WhatsApp message via the Twilio API.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	if to == "" {
		return models.ErrEmptyRecipient
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.api.CreateMessage(params); err != nil {
		slog.Error("TwilioService SendMessage failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("TwilioService message sent", "to", to, "body_length", len(body))
	return nil
}

// Start is a no-op; inbound traffic arrives through the webhook handler.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop stops the service and closes the incoming channel.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.incoming)
	slog.Info("TwilioService stopped")
	return nil
}

// Incoming returns the channel of inbound messages.
func (s *TwilioService) Incoming() <-chan models.IncomingMessage {
	return s.incoming
}

// InboundWebhookHandler handles inbound Twilio webhook requests. It parses
// the form-encoded message and emits it on the incoming channel.
func (s *TwilioService) InboundWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		slog.Warn("Twilio webhook missing fields", "from_set", from != "", "body_set", body != "")
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	slog.Debug("Inbound WhatsApp message from Twilio", "from", from, "body_length", len(body))
	s.emit(models.IncomingMessage{From: from, Body: body, Time: time.Now().Unix()})

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// emit pushes an inbound message onto the incoming channel, dropping it
// when the service is stopped or the channel stays blocked.
func (s *TwilioService) emit(msg models.IncomingMessage) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("TwilioService dropping inbound message (service stopped)", "from", msg.From)
		return
	}

	select {
	case s.incoming <- msg:
		slog.Debug("TwilioService emitted inbound message", "from", msg.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService incoming channel blocked, dropping message", "from", msg.From)
	}
}
