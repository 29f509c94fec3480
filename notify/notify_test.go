package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/punishpad/server/logger"
)

func TestHTTPDispatcher_SendMulticast(t *testing.T) {
	logger.Init()

	var mu sync.Mutex
	var received []pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}
		var req pushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Decoding push request: %v", err)
		}
		mu.Lock()
		received = append(received, req)
		mu.Unlock()
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, "test-key")
	err := d.SendMulticast(context.Background(), Message{
		Tokens: []string{"tok-1", "tok-2"},
		Title:  "Punish Pad - room finished",
		Body:   "B has finished their punishment.",
		Link:   "https://punishpad.example/room/abc123",
	})
	if err != nil {
		t.Fatalf("SendMulticast failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("Expected one request per token, got %d", len(received))
	}
	if received[0].To != "tok-1" || received[1].To != "tok-2" {
		t.Errorf("Unexpected token order: %q, %q", received[0].To, received[1].To)
	}
	if received[0].Webpush.Link != "https://punishpad.example/room/abc123" {
		t.Errorf("Unexpected deep link %q", received[0].Webpush.Link)
	}
}

func TestHTTPDispatcher_PartialFailure(t *testing.T) {
	logger.Init()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, "")
	err := d.SendMulticast(context.Background(), Message{Tokens: []string{"bad", "good"}})
	if err == nil {
		t.Fatal("Expected an error summarizing the failed delivery")
	}
	// The failure on the first token must not stop delivery to the second.
	if calls != 2 {
		t.Errorf("Expected both tokens attempted, got %d calls", calls)
	}
}

func TestNopDispatcher(t *testing.T) {
	var d Dispatcher = NopDispatcher{}
	if err := d.SendMulticast(context.Background(), Message{Tokens: []string{"tok"}}); err != nil {
		t.Fatalf("NopDispatcher should never fail, got %v", err)
	}
}
