package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type identifyPayload struct {
	Op int `json:"op"`
	D  struct {
		Token   string `json:"token"`
		Intents int    `json:"intents"`
	} `json:"d"`
}

// TestGatewayHandshake runs a full hello/identify/ready exchange against a
// local websocket server.
func TestGatewayHandshake(t *testing.T) {
	identifyCh := make(chan identifyPayload, 1)
	interactionSent := make(chan struct{})
	done := make(chan struct{})

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Hello with a heartbeat interval too long to fire during the test.
		if err := conn.WriteJSON(map[string]any{"op": opHello, "d": map[string]any{"heartbeat_interval": 45000}}); err != nil {
			return
		}
		var identify identifyPayload
		if err := conn.ReadJSON(&identify); err != nil {
			return
		}
		identifyCh <- identify

		_ = conn.WriteJSON(map[string]any{"op": opDispatch, "t": "READY", "s": 1, "d": map[string]any{}})
		_ = conn.WriteJSON(map[string]any{"op": opDispatch, "t": "INTERACTION_CREATE", "s": 2, "d": map[string]any{
			"id":    "int-1",
			"token": "tok-1",
			"data":  map[string]any{"name": "search"},
		}})
		close(interactionSent)
		<-done
	}))
	t.Cleanup(srv.Close)

	ready := make(chan struct{})
	interactions := make(chan Interaction, 1)
	g := &Gateway{
		Token:         "test-token",
		Intents:       IntentGuildMessageReactions | IntentDirectMessageReactions,
		URL:           "ws" + strings.TrimPrefix(srv.URL, "http"),
		OnReady:       func() { close(ready) },
		OnInteraction: func(i Interaction) { interactions <- i },
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- g.Run(ctx) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for READY")
	}
	if !g.Connected() {
		t.Error("Connected() = false after READY")
	}

	identify := <-identifyCh
	if identify.Op != opIdentify {
		t.Errorf("identify op = %d, want %d", identify.Op, opIdentify)
	}
	if identify.D.Token != "test-token" {
		t.Errorf("identify token = %q", identify.D.Token)
	}
	if identify.D.Intents != (IntentGuildMessageReactions | IntentDirectMessageReactions) {
		t.Errorf("identify intents = %d", identify.D.Intents)
	}

	select {
	case interaction := <-interactions:
		if interaction.ID != "int-1" || interaction.Data.Name != "search" {
			t.Errorf("interaction = %+v", interaction)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for interaction dispatch")
	}
	<-interactionSent

	cancel()
	close(done)
	srv.Close()
	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestGatewayConnectedDefault(t *testing.T) {
	g := &Gateway{}
	if g.Connected() {
		t.Error("Connected() = true on a fresh gateway")
	}
}
