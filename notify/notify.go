// Package notify delivers the room-finished push notification. Delivery is
// best effort: the game flow never waits on it and never sees its errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/punishpad/server/logger"
)

// Message is one multicast push: the same notification sent to every
// registered delivery token of a room.
type Message struct {
	Tokens []string
	Title  string
	Body   string
	// Link is the deep link back into the room.
	Link string
}

// Dispatcher hands a finished-room notification to the push service.
type Dispatcher interface {
	SendMulticast(ctx context.Context, msg Message) error
}

// HTTPDispatcher posts one request per token to a push relay endpoint
// (FCM-style: bearer key, JSON body). Per-token failures are logged and
// counted, never returned as fatal.
type HTTPDispatcher struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewHTTPDispatcher(endpoint, serverKey string) *HTTPDispatcher {
	return &HTTPDispatcher{
		endpoint:  endpoint,
		serverKey: serverKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	To           string           `json:"to"`
	Notification pushNotification `json:"notification"`
	Webpush      pushWebpush      `json:"webpush"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type pushWebpush struct {
	Link string `json:"link"`
}

func (d *HTTPDispatcher) SendMulticast(ctx context.Context, msg Message) error {
	failed := 0
	for _, token := range msg.Tokens {
		if err := d.sendOne(ctx, token, msg); err != nil {
			logger.Log.Warnf("Push delivery to token %s failed: %v", token, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("push delivery failed for %d of %d tokens", failed, len(msg.Tokens))
	}
	return nil
}

func (d *HTTPDispatcher) sendOne(ctx context.Context, token string, msg Message) error {
	body, err := json.Marshal(pushRequest{
		To: token,
		Notification: pushNotification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Webpush: pushWebpush{Link: msg.Link},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.serverKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.serverKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}

// NopDispatcher drops every notification. Used when no push endpoint is
// configured.
type NopDispatcher struct{}

func (NopDispatcher) SendMulticast(ctx context.Context, msg Message) error {
	return nil
}
