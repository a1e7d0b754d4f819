package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tg := NewTelegram("test-token", 42)
	tg.baseURL = server.URL
	return tg
}

func TestTelegram_SendsToOwnerChat(t *testing.T) {
	var got sendMessageRequest
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	})

	if err := tg.NotifyOwner(context.Background(), 777, "your order is done"); err != nil {
		t.Fatalf("notify owner: %v", err)
	}
	if got.ChatID != 777 {
		t.Fatalf("expected chat_id 777, got %d", got.ChatID)
	}
	if got.Text != "your order is done" {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestTelegram_SendsToOperatorChat(t *testing.T) {
	var got sendMessageRequest
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	})

	if err := tg.NotifyOperators(context.Background(), "new order"); err != nil {
		t.Fatalf("notify operators: %v", err)
	}
	if got.ChatID != 42 {
		t.Fatalf("expected operator chat 42, got %d", got.ChatID)
	}
}

func TestTelegram_APIErrorSurfaces(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "bot was blocked by the user"})
	})

	err := tg.NotifyOwner(context.Background(), 777, "hello")
	if err == nil {
		t.Fatalf("expected error from api failure")
	}
}
