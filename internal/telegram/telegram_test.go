package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logx "formrelay/pkg/logx"
)

func newTestAdapter(t *testing.T, handler http.Handler) (*Adapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := New(Config{Token: "123:abc", ChatID: 42, APIBase: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, srv
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Config{}, logx.Nop()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPostTextAcknowledged(t *testing.T) {
	var gotPath string
	var gotBody struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))

	if err := a.PostText(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("PostText: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/sendMessage") {
		t.Fatalf("path = %q, want .../sendMessage", gotPath)
	}
	if gotBody.ChatID != 42 || gotBody.Text != "hello" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestPostTextRejected(t *testing.T) {
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 400, "description": "chat not found"})
	}))

	err := a.PostText(context.Background(), 42, "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want description surfaced", err)
	}
}

func TestPostTextUnconfiguredChat(t *testing.T) {
	a, _ := newTestAdapter(t, http.NotFoundHandler())
	if err := a.PostText(context.Background(), 0, "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPingReachable(t *testing.T) {
	a, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // any HTTP response counts as reachable
	}))
	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a, err := New(Config{Token: "123:abc", ChatID: 42, APIBase: url}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Ping(context.Background()); err == nil {
		t.Fatal("expected error against closed server")
	}
}

func TestOperatorChatFallback(t *testing.T) {
	a, _ := newTestAdapter(t, http.NotFoundHandler())
	if got := a.OperatorChat(); got != 42 {
		t.Fatalf("OperatorChat = %d, want fallback 42", got)
	}
}
