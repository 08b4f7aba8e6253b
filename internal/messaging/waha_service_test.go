package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

func TestWAHAServiceSendMessageWireFormat(t *testing.T) {
	var got sendTextRequest
	var gotPath, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc, err := NewWAHAService(WithWAHABaseURL(server.URL), WithWAHASession("loja"))
	if err != nil {
		t.Fatalf("NewWAHAService failed: %v", err)
	}

	if err := svc.SendMessage(context.Background(), "5551999@c.us", "Olá!"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if gotPath != "/api/sendText" {
		t.Errorf("expected /api/sendText, got %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %s", gotContentType)
	}
	if got.Session != "loja" || got.ChatID != "5551999@c.us" || got.Text != "Olá!" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestWAHAServiceSendMessageGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewWAHAService(WithWAHABaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewWAHAService failed: %v", err)
	}

	if err := svc.SendMessage(context.Background(), "5551999@c.us", "Olá!"); err == nil {
		t.Error("expected error on gateway 500")
	}
}

func TestWAHAServiceValidation(t *testing.T) {
	svc, err := NewWAHAService(WithWAHABaseURL("http://localhost:3000"))
	if err != nil {
		t.Fatalf("NewWAHAService failed: %v", err)
	}

	if err := svc.SendMessage(context.Background(), "", "body"); err != models.ErrEmptyRecipient {
		t.Errorf("expected ErrEmptyRecipient, got %v", err)
	}
	if err := svc.SendMessage(context.Background(), "5551999@c.us", ""); err != models.ErrEmptyBody {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestWAHAServiceRequiresBaseURL(t *testing.T) {
	if _, err := NewWAHAService(); err == nil {
		t.Error("expected error when base URL is missing")
	}
}

func TestWAHAServiceDefaultSession(t *testing.T) {
	var got sendTextRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	svc, err := NewWAHAService(WithWAHABaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewWAHAService failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "x@c.us", "hi"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if got.Session != DefaultWAHASession {
		t.Errorf("expected default session %q, got %q", DefaultWAHASession, got.Session)
	}
}
