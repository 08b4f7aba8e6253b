package messaging

import (
	"context"
	"log/slog"
)

// Handler processes one inbound message. It matches the router's
// HandleMessage signature.
type Handler interface {
	HandleMessage(ctx context.Context, chatID string, text string) []string
}

// Listener drains a Service's incoming channel and hands each message to
// the conversation handler. It serves transports that push events directly
// (whatsmeow, Twilio); the WAHA webhook path calls the handler from the
// HTTP layer instead.
type Listener struct {
	service Service
	handler Handler
}

// NewListener creates a listener draining the given service into the handler.
func NewListener(service Service, handler Handler) *Listener {
	return &Listener{service: service, handler: handler}
}

// Run processes inbound messages until the context is cancelled or the
// service's incoming channel is closed. Each message is handled on the
// listener goroutine; the router serializes state per chat through the
// store, so a single consumer is sufficient.
func (l *Listener) Run(ctx context.Context) {
	slog.Info("Messaging listener started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Messaging listener stopping", "reason", ctx.Err())
			return
		case msg, ok := <-l.service.Incoming():
			if !ok {
				slog.Info("Messaging listener stopping (incoming channel closed)")
				return
			}
			slog.Debug("Listener dispatching inbound message", "from", msg.From, "body_length", len(msg.Body))
			l.handler.HandleMessage(ctx, msg.From, msg.Body)
		}
	}
}
