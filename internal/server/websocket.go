package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

// playerConn wraps one websocket connection with a write lock. The websocket
// allows at most one writer at a time, and the reader's error replies would
// otherwise race with the outbox fan-out goroutines.
type playerConn struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (pc *playerConn) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()
	return pc.conn.WriteMessage(websocket.TextMessage, data)
}

// wsHub tracks one connection per player per session. A reconnect under the
// same player id replaces the previous connection.
type wsHub struct {
	mu    sync.Mutex
	conns map[string]map[string]*playerConn
}

func newWSHub() *wsHub {
	return &wsHub{
		conns: make(map[string]map[string]*playerConn),
	}
}

func (h *wsHub) Add(code, playerID string, conn *websocket.Conn) *playerConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.conns[code]
	if group == nil {
		group = make(map[string]*playerConn)
		h.conns[code] = group
	}
	if old, ok := group[playerID]; ok {
		_ = old.conn.Close()
	}
	pc := &playerConn{conn: conn}
	group[playerID] = pc
	return pc
}

// Remove drops the connection only if it is still the registered one, so a
// reconnect is not torn down by the stale reader's deferred cleanup.
func (h *wsHub) Remove(code, playerID string, pc *playerConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.conns[code]
	if group == nil {
		return
	}
	if current, ok := group[playerID]; ok && current == pc {
		delete(group, playerID)
	}
	_ = pc.conn.Close()
	if len(group) == 0 {
		delete(h.conns, code)
	}
}

// Connections returns a snapshot of the session's live connections.
func (h *wsHub) Connections(code string) map[string]*playerConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.conns[code]
	out := make(map[string]*playerConn, len(group))
	for playerID, pc := range group {
		out[playerID] = pc
	}
	return out
}

func parseWebsocketPath(path string) (string, bool) {
	code, found := strings.CutPrefix(path, "/ws/games/")
	code = strings.TrimSuffix(code, "/")
	if !found || code == "" || strings.Contains(code, "/") {
		return "", false
	}
	return code, true
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	code, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	playerID := r.URL.Query().Get("player_id")
	entry, exists := s.store.Get(code)
	if !exists {
		http.NotFound(w, r)
		return
	}

	entry.mu.Lock()
	player, known := entry.sess.Players[playerID]
	sessionCode := entry.sess.Code
	entry.mu.Unlock()
	if !known {
		writeError(w, http.StatusForbidden, "unknown player")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected session_id=%s player_id=%s remote=%s", sessionCode, playerID, r.RemoteAddr)

	entry.mu.Lock()
	pc := s.hub.Add(sessionCode, playerID, conn)
	initial := statePayload(entry.sess, player.Role)
	entry.mu.Unlock()
	_ = pc.send(initial)

	go s.readWS(sessionCode, playerID, pc)
}

type wsAction struct {
	Action   string   `json:"action"`
	Room     string   `json:"room"`
	Power    string   `json:"power"`
	Rooms    []string `json:"rooms"`
	Floor    string   `json:"floor"`
	TargetID string   `json:"target_id"`
}

func (s *Server) readWS(code, playerID string, pc *playerConn) {
	defer s.hub.Remove(code, playerID, pc)
	for {
		_, data, err := pc.conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected session_id=%s player_id=%s error=%v", code, playerID, err)
			return
		}
		var msg wsAction
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = pc.send(map[string]any{
				"type":    "error",
				"message": "malformed message",
			})
			continue
		}
		if err := s.dispatchAction(code, playerID, msg); err != nil {
			_ = pc.send(map[string]any{
				"type":    "error",
				"message": err.Error(),
			})
		}
	}
}

// dispatchAction routes one inbound player message through the session
// actor. Unknown and rejected actions leave the session untouched.
func (s *Server) dispatchAction(code, playerID string, msg wsAction) error {
	switch msg.Action {
	case "select_room":
		return s.withSession(code, func(sess *game.Session) error {
			return sess.SelectRoom(playerID, msg.Room)
		})
	case "select_power":
		return s.withSession(code, func(sess *game.Session) error {
			return sess.SelectPower(playerID, msg.Power)
		})
	case "power_action":
		return s.withSession(code, func(sess *game.Session) error {
			return sess.SubmitPowerTargets(playerID, game.PowerTargets{
				Rooms: msg.Rooms,
				Floor: msg.Floor,
			})
		})
	case "use_revival_item":
		return s.withSession(code, func(sess *game.Session) error {
			return sess.UseRevivalItem(playerID, msg.TargetID)
		})
	default:
		return &game.ValidationError{Reason: "unknown action " + msg.Action}
	}
}

// statePayload is the full filtered snapshot pushed over the socket.
func statePayload(sess *game.Session, role game.Role) map[string]any {
	return map[string]any{
		"type": "state_update",
		"game": sess.ViewFor(role),
	}
}

// deliver fans the session's queued broadcasts out to the connected
// players. It runs under the session mutex, so every client sees the
// messages of one operation before any later operation mutates the session.
// State updates are rebuilt per recipient so each role only sees what it is
// entitled to.
func (s *Server) deliver(sess *game.Session) {
	outbox := sess.DrainOutbox()
	if len(outbox) == 0 {
		return
	}
	conns := s.hub.Connections(sess.Code)
	if len(conns) == 0 {
		return
	}

	// Messages for one connection stay in queue order on a single
	// goroutine; the websocket does not allow concurrent writers.
	queues := make(map[string][]map[string]any)
	for _, out := range outbox {
		for playerID := range conns {
			player, ok := sess.Players[playerID]
			if !ok {
				continue
			}
			if out.Audience.PlayerID != "" && out.Audience.PlayerID != playerID {
				continue
			}
			if out.Audience.PlayerID == "" && out.Audience.Role != "" && out.Audience.Role != player.Role {
				continue
			}
			payload := out.Payload
			if payload["type"] == "state_update" {
				payload = statePayload(sess, player.Role)
			}
			queues[playerID] = append(queues[playerID], payload)
		}
	}

	var wg sync.WaitGroup
	var failedMu sync.Mutex
	failed := make(map[string]*playerConn)
	for playerID, payloads := range queues {
		pc := conns[playerID]
		wg.Add(1)
		go func(playerID string, pc *playerConn, payloads []map[string]any) {
			defer wg.Done()
			for _, payload := range payloads {
				if err := pc.send(payload); err != nil {
					failedMu.Lock()
					failed[playerID] = pc
					failedMu.Unlock()
					return
				}
			}
		}(playerID, pc, payloads)
	}
	wg.Wait()
	for playerID, pc := range failed {
		s.hub.Remove(sess.Code, playerID, pc)
	}
}
