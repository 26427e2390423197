package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

type createRequest struct {
	HostName       string `json:"host_name" validate:"required,playername"`
	HostClass      string `json:"host_class" validate:"required,playerclass"`
	Role           string `json:"role" validate:"required,oneof=survivor killer"`
	ConspiracyMode bool   `json:"conspiracy_mode"`
}

type joinRequest struct {
	PlayerName  string `json:"player_name" validate:"required,playername"`
	PlayerClass string `json:"player_class" validate:"required,playerclass"`
	Role        string `json:"role" validate:"required,oneof=survivor killer"`
}

type startRequest struct {
	PlayerID string `json:"player_id" validate:"required,uuid4"`
}

type roleRequest struct {
	PlayerID string `json:"player_id" validate:"required,uuid4"`
	Role     string `json:"role" validate:"required,oneof=survivor killer"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/" && r.URL.Path != "/api" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Yishimo Kawazaki's Game API",
	})
}

func (s *Server) handlePowers(w http.ResponseWriter, r *http.Request) {
	powers := make([]map[string]any, 0)
	for _, p := range game.PowerCatalog() {
		powers = append(powers, map[string]any{
			"name":            p.Name,
			"title":           p.Title,
			"description":     p.Description,
			"requires_action": p.RequiresTargets(),
			"action_type":     p.Targeting,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"powers": powers})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"games": s.store.ListSummaries(),
	})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, _ := validateName(req.HostName)
	class, _ := validateClass(req.HostClass)

	entry := s.store.CreateSession()
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.sess.ConspiracyMode = req.ConspiracyMode
	host, err := entry.sess.Join(name, class, game.Role(req.Role))
	if err != nil {
		writeGameError(w, err)
		return
	}
	entry.sess.DrainOutbox() // nobody is connected yet

	log.Printf("session created session_id=%s host=%s role=%s conspiracy=%t",
		entry.sess.Code, host.Name, host.Role, entry.sess.ConspiracyMode)
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": entry.sess.Code,
		"player_id":  host.ID,
		"join_link":  "/join/" + entry.sess.Code,
	})
}

func (s *Server) handleGameSubroutes(w http.ResponseWriter, r *http.Request) {
	code, action, ok := parseGamePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if action == "" {
			s.handleGetGame(w, r, code)
			return
		}
		http.NotFound(w, r)
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinGame(w, r, code)
		case "start":
			s.handleStartGame(w, r, code)
		case "reset":
			s.handleResetGame(w, r, code)
		case "role":
			s.handleChangeRole(w, r, code)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseGamePath(path string) (code, action string, ok bool) {
	rest, found := strings.CutPrefix(path, "/api/games/")
	if !found || rest == "" {
		return "", "", false
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	}
	return "", "", false
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, code string) {
	playerID := r.URL.Query().Get("player_id")
	var view game.View
	err := s.withSession(code, func(sess *game.Session) error {
		role := game.Role("")
		if player, ok := sess.Players[playerID]; ok {
			role = player.Role
		}
		view = sess.ViewFor(role)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request, code string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, _ := validateName(req.PlayerName)
	class, _ := validateClass(req.PlayerClass)

	var player *game.Player
	var sessionID string
	err := s.withSession(code, func(sess *game.Session) error {
		joined, err := sess.Join(name, class, game.Role(req.Role))
		if err != nil {
			return err
		}
		player = joined
		sessionID = sess.Code
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	log.Printf("player joined session_id=%s player=%s role=%s", sessionID, player.Name, player.Role)
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"player_id":  player.ID,
	})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request, code string) {
	var req startRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.withSession(code, func(sess *game.Session) error {
		if sess.HostID != req.PlayerID {
			return &game.ValidationError{Reason: "only the host can start the game"}
		}
		return sess.Start()
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	log.Printf("session started session_id=%s", strings.ToUpper(code))
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleResetGame(w http.ResponseWriter, r *http.Request, code string) {
	var req startRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.withSession(code, func(sess *game.Session) error {
		if sess.HostID != req.PlayerID {
			return &game.ValidationError{Reason: "only the host can reset the game"}
		}
		sess.Reset()
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	log.Printf("session reset session_id=%s", strings.ToUpper(code))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request, code string) {
	var req roleRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.withSession(code, func(sess *game.Session) error {
		return sess.ChangeRole(req.PlayerID, game.Role(req.Role))
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "new_role": req.Role})
}
