package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types/events"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/whatsapp"
)

// WhatsAppService implements Service using the Whatsmeow-based whatsapp
// client, for deployments that connect to WhatsApp directly instead of
// through a WAHA gateway. Incoming text messages are converted into
// IncomingMessage events for the listener.
type WhatsAppService struct {
	client   whatsapp.Sender
	waClient *whatsapp.Client // underlying client for event handling, nil for mocks
	incoming chan models.IncomingMessage
	mu       sync.RWMutex
	stopped  bool
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given sender.
func NewWhatsAppService(client whatsapp.Sender) *WhatsAppService {
	service := &WhatsAppService{
		client:   client,
		incoming: make(chan models.IncomingMessage, DefaultChannelBufferSize),
	}
	if waClient, ok := client.(*whatsapp.Client); ok {
		service.waClient = waClient
		slog.Debug("WhatsAppService created with full client for event handling")
	} else {
		slog.Debug("WhatsAppService created with interface client (likely mock)")
	}
	return service
}

// Start registers the event handler feeding incoming messages.
func (s *WhatsAppService) Start(ctx context.Context) error {
	slog.Debug("WhatsAppService Start invoked")
	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Debug("WhatsAppService no full client available, skipping event handling")
		return nil
	}

	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			s.handleIncomingMessage(msg)
		}
	})
	slog.Debug("WhatsAppService event handler registered")
	return nil
}

// Stop stops the service and closes the incoming channel.
func (s *WhatsAppService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.incoming)
	slog.Info("WhatsAppService stopped")
	return nil
}

// SendMessage sends a message through the whatsmeow client.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	slog.Debug("WhatsAppService SendMessage invoked", "to", to, "body_length", len(body))
	if err := s.client.SendMessage(ctx, to, body); err != nil {
		slog.Error("WhatsAppService SendMessage error", "error", err, "to", to)
		return err
	}
	return nil
}

// Incoming returns the channel of inbound messages.
func (s *WhatsAppService) Incoming() <-chan models.IncomingMessage {
	return s.incoming
}

// handleIncomingMessage converts incoming text messages into
// IncomingMessage events. Non-text messages are skipped.
func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	var body string
	if evt.Message.Conversation != nil {
		body = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		body = *evt.Message.ExtendedTextMessage.Text
	} else {
		slog.Debug("WhatsAppService ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	msg := models.IncomingMessage{
		From: evt.Info.Chat.User,
		Body: body,
		Time: evt.Info.Timestamp.Unix(),
	}

	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case s.incoming <- msg:
		slog.Debug("WhatsAppService incoming message forwarded", "from", msg.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService incoming channel blocked, dropping message", "from", msg.From)
	}
}
