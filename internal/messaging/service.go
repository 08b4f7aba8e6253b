// Package messaging provides outbound message delivery backends for the
// chatbot and the inbound listener that feeds transport events into the
// conversation router.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// Constants shared by the messaging services.
const (
	// DefaultChannelBufferSize defines the default buffer size for incoming message channels
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when a send is attempted on a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

// Service defines a pluggable message delivery abstraction.
//
// Delivery is best-effort from the router's point of view: errors are
// reported to the caller, logged, and never retried.
type Service interface {
	// SendMessage sends a message to a chat.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing (e.g., event polling).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Incoming returns a channel of inbound messages for transports that
	// deliver them directly (whatsmeow events, Twilio webhooks). Gateway
	// transports whose inbound path is the HTTP webhook leave it idle.
	Incoming() <-chan models.IncomingMessage
}
