// Package testutil provides common test utilities and helpers for chatbot tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/api"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/flow"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/store"
)

// MockSender records outbound messages instead of delivering them.
type MockSender struct {
	mu   sync.Mutex
	Sent []models.Message
	Err  error // returned from SendMessage when set
}

// SendMessage records the message and returns the configured error.
func (m *MockSender) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, models.Message{ChatID: to, Sender: models.SenderBot, Body: body})
	return nil
}

// Bodies returns the recorded outbound message bodies in send order.
func (m *MockSender) Bodies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	bodies := make([]string, len(m.Sent))
	for i, msg := range m.Sent {
		bodies[i] = msg.Body
	}
	return bodies
}

// MockResponder answers free-form questions with a fixed string or error.
type MockResponder struct {
	Answer string
	Err    error

	mu        sync.Mutex
	Questions []string
	Histories [][]models.Message
}

// RespondToQuestion records the call and returns the configured answer or error.
func (m *MockResponder) RespondToQuestion(ctx context.Context, question string, history []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Questions = append(m.Questions, question)
	m.Histories = append(m.Histories, history)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

// LastHistory returns the history passed to the most recent responder call.
func (m *MockResponder) LastHistory() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Histories) == 0 {
		return nil
	}
	return m.Histories[len(m.Histories)-1]
}

// NewTestRouter creates a router over an in-memory store with mock adapters.
func NewTestRouter(opts ...flow.Option) (*flow.Router, *store.InMemoryStore, *MockSender, *MockResponder) {
	st := store.NewInMemoryStore()
	sender := &MockSender{}
	responder := &MockResponder{Answer: "mock answer"}
	return flow.NewRouter(st, sender, responder, opts...), st, sender, responder
}

// NewTestServer creates a test API server with in-memory dependencies.
func NewTestServer() (*api.Server, *store.InMemoryStore, *MockSender, *MockResponder) {
	router, st, sender, responder := NewTestRouter()
	return api.NewServer(router), st, sender, responder
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// WebhookBody builds the JSON body of an inbound message webhook event.
func WebhookBody(t *testing.T, from, text string) *bytes.Buffer {
	t.Helper()
	evt := models.WebhookEvent{
		Event:   "message",
		Payload: &models.WebhookPayload{From: from, Body: text},
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("failed to marshal webhook event: %v", err)
	}
	return bytes.NewBuffer(data)
}
