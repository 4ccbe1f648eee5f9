package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"aurenlm-backend/internal/middleware"
)

func newTestHub() (*Hub, *middleware.JWTAuth) {
	jwtAuth := middleware.NewJWTAuth("test-secret")
	// Pub/sub never connects in tests; the ack path does not depend on it.
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewHub(redisClient, jwtAuth), jwtAuth
}

func TestHandleWebSocketSendsConnectedAck(t *testing.T) {
	hub, jwtAuth := newTestHub()

	token, err := jwtAuth.GenerateAccessToken(uuid.New(), "user@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}

	var msg map[string]string
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("ack is not JSON: %v", err)
	}
	if msg["type"] != "connected" {
		t.Errorf("expected connected ack, got %v", msg)
	}
}

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	hub, _ := newTestHub()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 handshake response, got %+v", resp)
	}
}

func TestHandleWebSocketRejectsBadToken(t *testing.T) {
	hub, _ := newTestHub()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=not-a-jwt"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected handshake to fail with a bad token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 handshake response, got %+v", resp)
	}
}
