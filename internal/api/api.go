// Package api provides the HTTP surface of the chatbot: the WhatsApp
// webhook that drives the conversation state machine, plus a home page and
// a health check endpoint.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/flow"
)

// Constants for API server configuration.
const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown on exit.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultWebhookTimeout bounds the handling of a single webhook event,
	// covering the AI call and every outbound send for the turn.
	DefaultWebhookTimeout = 60 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr           string
	TwilioWebhook  http.HandlerFunc
	WebhookTimeout time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithTwilioWebhook mounts an inbound Twilio webhook handler at
// /webhook/twilio, for deployments using the Twilio transport.
func WithTwilioWebhook(handler http.HandlerFunc) Option {
	return func(o *Opts) {
		o.TwilioWebhook = handler
	}
}

// WithWebhookTimeout overrides the per-event handling timeout.
func WithWebhookTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.WebhookTimeout = d
	}
}

// Server wires the conversation router into HTTP handlers.
type Server struct {
	addr           string
	router         *flow.Router
	twilioWebhook  http.HandlerFunc
	webhookTimeout time.Duration
	httpServer     *http.Server
}

// NewServer creates an API server around the given conversation router.
func NewServer(router *flow.Router, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, WebhookTimeout: DefaultWebhookTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		addr:           cfg.Addr,
		router:         router,
		twilioWebhook:  cfg.TwilioWebhook,
		webhookTimeout: cfg.WebhookTimeout,
	}
	slog.Debug("Server created", "addr", s.addr, "twilio_webhook", s.twilioWebhook != nil)
	return s
}

// Handler returns the routed HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/health", s.healthHandler)
	if s.twilioWebhook != nil {
		mux.HandleFunc("/webhook/twilio", s.twilioWebhook)
	}
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("API server shutting down", "reason", ctx.Err())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown error", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("API server listener failed", "error", err)
			return err
		}
		return nil
	}
}
