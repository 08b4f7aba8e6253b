package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/content"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/testutil"
)

func TestWebhookHandlerProcessesMessage(t *testing.T) {
	server, _, sender, _ := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook", testutil.WebhookBody(t, "5551999@c.us", "4"))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "webhook message")
	testutil.AssertJSONResponse(t, rr, models.WebhookStatusReceived)

	bodies := sender.Bodies()
	if len(bodies) != 2 {
		t.Fatalf("expected about text and menu delivered, got %d messages", len(bodies))
	}
	if bodies[1] != content.MenuText {
		t.Errorf("expected menu as second outbound message")
	}
}

func TestWebhookHandlerIgnoresNonMessageEvent(t *testing.T) {
	server, st, sender, _ := testutil.NewTestServer()

	body := bytes.NewBufferString(`{"event":"session.status","payload":{"from":"x","body":"y"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", body)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "non-message event")
	testutil.AssertJSONResponse(t, rr, models.WebhookStatusReceived)
	if len(sender.Bodies()) != 0 {
		t.Errorf("expected no outbound messages for non-message event")
	}
	msgs, _ := st.GetRecentMessages("x", 10)
	if len(msgs) != 0 {
		t.Errorf("expected no transcript writes for non-message event")
	}
}

func TestWebhookHandlerMissingPayload(t *testing.T) {
	server, _, sender, _ := testutil.NewTestServer()

	body := bytes.NewBufferString(`{"event":"message"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", body)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "missing payload")
	testutil.AssertJSONResponse(t, rr, models.WebhookStatusReceived)
	if len(sender.Bodies()) != 0 {
		t.Errorf("expected no outbound messages for event without payload")
	}
}

func TestWebhookHandlerFiltersBroadcastAndEmpty(t *testing.T) {
	tests := []struct {
		name string
		from string
		text string
	}{
		{"broadcast sender", models.BroadcastStatusJID, "promo"},
		{"empty body", "5551999@c.us", ""},
		{"whitespace body", "5551999@c.us", "  \n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, st, sender, _ := testutil.NewTestServer()

			req := httptest.NewRequest(http.MethodPost, "/webhook", testutil.WebhookBody(t, tt.from, tt.text))
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, req)

			testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, tt.name)
			testutil.AssertJSONResponse(t, rr, models.WebhookStatusIgnored)

			if len(sender.Bodies()) != 0 {
				t.Errorf("expected zero outbound sends")
			}
			msgs, _ := st.GetRecentMessages(tt.from, 10)
			if len(msgs) != 0 {
				t.Errorf("expected zero transcript writes")
			}
			state, _ := st.GetChatState(tt.from)
			if state != nil {
				t.Errorf("expected zero state mutation")
			}
		})
	}
}

func TestWebhookHandlerMalformedJSON(t *testing.T) {
	server, _, _, _ := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "malformed JSON")
}

func TestWebhookHandlerMethodNotAllowed(t *testing.T) {
	server, _, _, _ := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "GET webhook")
}

func TestHomeHandler(t *testing.T) {
	server, _, _, _ := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "home")
	if !strings.Contains(rr.Body.String(), "/webhook") {
		t.Errorf("expected home text to mention the webhook route, got %q", rr.Body.String())
	}
}

func TestHomeHandlerUnknownPath(t *testing.T) {
	server, _, _, _ := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unknown path")
}

func TestHealthHandler(t *testing.T) {
	server, _, _, _ := testutil.NewTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	testutil.AssertJSONResponse(t, rr, "healthy")
}
