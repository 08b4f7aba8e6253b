package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// homeText is the static page served at the root path.
const homeText = "O bot está rodando e aguardando webhooks na rota /webhook."

// webhookHandler receives WAHA webhook events and drives the conversation
// router. The contract always answers HTTP 200 with a small status body for
// parseable input; only malformed JSON yields a 400.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.webhookHandler: processing webhook request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.webhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var evt models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		slog.Warn("Server.webhookHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	// Unrecognized events are acknowledged without processing.
	if evt.Event != "message" || evt.Payload == nil {
		slog.Debug("Server.webhookHandler: unrecognized event, acknowledging", "event", evt.Event)
		writeJSONResponse(w, http.StatusOK, models.Received())
		return
	}

	sender := evt.Payload.From
	text := strings.TrimSpace(evt.Payload.Body)

	// Empty messages and status broadcasts are filtered before any state
	// read or transcript write.
	if text == "" || sender == models.BroadcastStatusJID {
		slog.Debug("Server.webhookHandler: filtered message", "from", sender, "empty", text == "")
		writeJSONResponse(w, http.StatusOK, models.Ignored())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.webhookTimeout)
	defer cancel()

	sent := s.router.HandleMessage(ctx, sender, text)
	slog.Info("Server.webhookHandler: message processed", "from", sender, "replies", len(sent))
	writeJSONResponse(w, http.StatusOK, models.Received())
}

// homeHandler serves a static status line at the root path.
func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, homeText)
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}
