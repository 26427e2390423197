package server

import (
	"net/http"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/config"
)

type Server struct {
	store *Store
	hub   *wsHub
	cfg   config.Config
}

func New(cfg config.Config) *Server {
	return &Server{
		store: NewStore(cfg.Rules),
		hub:   newWSHub(),
		cfg:   cfg,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/", s.handleRoot)
	mux.HandleFunc("GET /api/powers", s.handlePowers)
	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("POST /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("GET /ws/games/", s.handleWebsocket)
	return mux
}
