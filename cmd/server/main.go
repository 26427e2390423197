package main

import (
	"log"
	"net/http"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/config"
	"github.com/Sandapan/Yishimo-Kawazaki/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.Load()

	srv := server.New(cfg)
	log.Printf("game server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
