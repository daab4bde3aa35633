package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/multigame"
	"hexfront.gg/internal/sim/tuning"
)

func startTestServer(t *testing.T) (*httptest.Server, *multigame.Manager) {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	logger := log.New(io.Discard, "", 0)

	// Short ticks keep the view round trips fast.
	tune := tuning.Defaults()
	tune.TickIntervalMs = 50

	mgr := multigame.NewManager(logger, cats, tune, "", nil)
	if _, err := mgr.CreateGame(context.Background(), []string{"alice", "bob"}, 1); err != nil {
		t.Fatalf("create game: %v", err)
	}
	srv := httptest.NewServer(NewServer(mgr, logger, 5*time.Second).Handler())
	t.Cleanup(func() {
		srv.Close()
		mgr.Shutdown(5 * time.Second)
	})
	return srv, mgr
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandshake_HelloByNameGetsWelcomeAndViews(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      "alice",
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.PlayerID != "P1" {
		t.Fatalf("welcome = %+v", welcome)
	}
	if welcome.ResumeToken == "" || welcome.UpgradesDigest == "" {
		t.Fatalf("welcome missing resume token or catalog digest")
	}

	// The next frames are per-tick views for this seat.
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read view: %v", err)
	}
	var view protocol.ViewMsg
	if err := json.Unmarshal(msg, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Type != protocol.TypeView || view.PlayerID != "P1" {
		t.Fatalf("view = type %s player %s", view.Type, view.PlayerID)
	}
	if view.Self.Population == 0 {
		t.Fatalf("view carries no self state")
	}
}

func TestHandshake_ResumeTokenReattaches(t *testing.T) {
	srv, _ := startTestServer(t)

	conn := dial(t, srv)
	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      "bob",
	}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	var first protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &first); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	conn.Close()

	conn2 := dial(t, srv)
	if err := conn2.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Auth:            &protocol.HelloAuth{Token: first.ResumeToken},
	}); err != nil {
		t.Fatalf("write resume hello: %v", err)
	}
	_ = conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err = conn2.ReadMessage()
	if err != nil {
		t.Fatalf("read resumed welcome: %v", err)
	}
	var second protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &second); err != nil {
		t.Fatalf("decode resumed welcome: %v", err)
	}
	if second.PlayerID != first.PlayerID {
		t.Fatalf("resume landed on %s, want %s", second.PlayerID, first.PlayerID)
	}
}

func TestIntentAfterGameEnd_ClosesConnection(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      "alice",
	}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read welcome: %v", err)
	}

	// Forfeit ends the two-player match; the still-open connection keeps
	// pushing intents at a server that no longer runs the game. The server
	// must tear the connection down instead of wedging its reader on a
	// full inbox.
	intent := protocol.IntentMsg{
		Type: protocol.TypeIntent, ProtocolVersion: protocol.Version,
		ID: "f1", Kind: protocol.IntentForfeit,
	}
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(intent); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.Fatalf("connection wedged after game end: %v", err)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connection not closed after game end")
}

func TestHandshake_RejectsBadProtocolVersion(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: "0.0",
		PlayerName:      "alice",
	}); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("err = %v, want policy violation close", err)
	}
}

func TestHandshake_RejectsUnknownSeat(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      "mallory",
	}); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("err = %v, want policy violation close", err)
	}
}
