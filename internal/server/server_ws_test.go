package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

func dialWS(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + code + "?player_id=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWSMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	return payload
}

// waitForWSMessage reads until a message satisfies the predicate or the
// deadline passes.
func waitForWSMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration, pred func(map[string]any) bool) map[string]any {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg := readWSMessage(t, conn, time.Until(deadline))
		if pred(msg) {
			return msg
		}
	}
	t.Fatalf("no matching websocket message before the deadline")
	return nil
}

func msgType(want string) func(map[string]any) bool {
	return func(msg map[string]any) bool {
		return msg["type"] == want
	}
}

func sendWSAction(t *testing.T, conn *websocket.Conn, action map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(action); err != nil {
		t.Fatalf("send websocket action: %v", err)
	}
}

func TestWebsocketRejectsUnknownPlayer(t *testing.T) {
	srv := New(testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, _ := createGame(t, ts)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + code + "?player_id=nobody"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected handshake rejection for an unknown player")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d on rejection", http.StatusForbidden)
	}
}

func TestWebsocketSendsInitialState(t *testing.T) {
	srv := New(testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createGame(t, ts)
	conn := dialWS(t, ts, code, hostID)

	msg := waitForWSMessage(t, conn, 5*time.Second, msgType("state_update"))
	state, _ := msg["game"].(map[string]any)
	if state["session_id"] != code {
		t.Fatalf("initial state should describe the joined session, got %v", state["session_id"])
	}
	if state["phase"] != "waiting" {
		t.Fatalf("expected lobby phase, got %v", state["phase"])
	}
}

func TestWebsocketBroadcastsLobbyChanges(t *testing.T) {
	srv := New(testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createGame(t, ts)
	conn := dialWS(t, ts, code, hostID)
	waitForWSMessage(t, conn, 5*time.Second, msgType("state_update"))

	joinPlayer(t, ts, code, "Mara", "hunter", "killer")

	msg := waitForWSMessage(t, conn, 5*time.Second, msgType("state_update"))
	state, _ := msg["game"].(map[string]any)
	players, _ := state["players"].(map[string]any)
	if len(players) != 2 {
		t.Fatalf("join broadcast should carry the grown roster, got %d", len(players))
	}
}

func TestWebsocketFullTurnCycle(t *testing.T) {
	srv := New(testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createGame(t, ts)
	killerID := joinPlayer(t, ts, code, "Mara", "hunter", "killer")

	hostConn := dialWS(t, ts, code, hostID)
	killerConn := dialWS(t, ts, code, killerID)
	waitForWSMessage(t, hostConn, 5*time.Second, msgType("state_update"))
	waitForWSMessage(t, killerConn, 5*time.Second, msgType("state_update"))

	startGame(t, ts, code, hostID)
	waitForWSMessage(t, hostConn, 5*time.Second, msgType("game_started"))

	sendWSAction(t, hostConn, map[string]any{"action": "select_room", "room": "Kitchen"})
	waitForWSMessage(t, killerConn, 5*time.Second, func(msg map[string]any) bool {
		if msg["type"] != "state_update" {
			return false
		}
		state, _ := msg["game"].(map[string]any)
		return state["phase"] == "killer_power_selection"
	})

	sendWSAction(t, killerConn, map[string]any{"action": "select_power", "power": game.PowerLocate})
	waitForWSMessage(t, killerConn, 5*time.Second, msgType("power_action_required"))
	sendWSAction(t, killerConn, map[string]any{"action": "power_action", "floor": game.FloorGround})
	waitForWSMessage(t, killerConn, 5*time.Second, func(msg map[string]any) bool {
		if msg["type"] != "state_update" {
			return false
		}
		state, _ := msg["game"].(map[string]any)
		return state["phase"] == "killer_selection"
	})

	// The killer hunts an empty room; the turn resolves and a new one opens.
	sendWSAction(t, killerConn, map[string]any{"action": "select_room", "room": "Attic"})
	msg := waitForWSMessage(t, hostConn, 5*time.Second, msgType("new_turn"))
	if msg["turn"] != float64(2) {
		t.Fatalf("expected turn 2, got %v", msg["turn"])
	}
}

// TestWebsocketConcurrentErrorAndBroadcastWrites drives the reader's error
// replies and the join broadcast fan-out over one connection at the same
// time. Both paths write to the same socket; the connection must survive and
// every message must arrive.
func TestWebsocketConcurrentErrorAndBroadcastWrites(t *testing.T) {
	srv := New(testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createGame(t, ts)
	conn := dialWS(t, ts, code, hostID)
	waitForWSMessage(t, conn, 5*time.Second, msgType("state_update"))

	names := []string{"Mara", "Nils", "Orla"}
	joinErr := make(chan error, 1)
	go func() {
		for _, name := range names {
			body, _ := json.Marshal(map[string]any{
				"player_name":  name,
				"player_class": "hunter",
				"role":         "killer",
			})
			resp, err := ts.Client().Post(ts.URL+"/api/games/"+code+"/join", "application/json", bytes.NewReader(body))
			if err != nil {
				joinErr <- err
				return
			}
			resp.Body.Close()
		}
		joinErr <- nil
	}()

	const rejected = 10
	for i := 0; i < rejected; i++ {
		sendWSAction(t, conn, map[string]any{"action": "grow_wings"})
	}
	if err := <-joinErr; err != nil {
		t.Fatalf("join players: %v", err)
	}

	errorReplies, roster := 0, 0
	deadline := time.Now().Add(10 * time.Second)
	for errorReplies < rejected || roster < len(names)+1 {
		msg := readWSMessage(t, conn, time.Until(deadline))
		switch msg["type"] {
		case "error":
			errorReplies++
		case "state_update":
			state, _ := msg["game"].(map[string]any)
			players, _ := state["players"].(map[string]any)
			if len(players) > roster {
				roster = len(players)
			}
		}
	}

	// One more round trip shows the socket survived the contention.
	sendWSAction(t, conn, map[string]any{"action": "grow_wings"})
	waitForWSMessage(t, conn, 5*time.Second, msgType("error"))
}

func TestWebsocketRejectedActionReportsError(t *testing.T) {
	srv := New(testConfig())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createGame(t, ts)
	killerID := joinPlayer(t, ts, code, "Mara", "hunter", "killer")
	hostConn := dialWS(t, ts, code, hostID)
	waitForWSMessage(t, hostConn, 5*time.Second, msgType("state_update"))
	startGame(t, ts, code, hostID)

	// Killers cannot move during survivor selection.
	killerConn := dialWS(t, ts, code, killerID)
	waitForWSMessage(t, killerConn, 5*time.Second, msgType("state_update"))
	sendWSAction(t, killerConn, map[string]any{"action": "select_room", "room": "Kitchen"})
	waitForWSMessage(t, killerConn, 5*time.Second, msgType("error"))

	sendWSAction(t, killerConn, map[string]any{"action": "grow_wings"})
	msg := waitForWSMessage(t, killerConn, 5*time.Second, msgType("error"))
	if text, _ := msg["message"].(string); !strings.Contains(text, "grow_wings") {
		t.Fatalf("unknown action error should name the action, got %q", text)
	}
}
