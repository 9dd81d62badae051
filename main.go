package main

import (
	"context"
	"fmt"
	"net/http"

	"notehub/config"
	"notehub/config/database"
	"notehub/internal/note/repository"
	"notehub/pkg/keepalive"
	"notehub/pkg/logger"
	"notehub/router"
	"notehub/socket"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Sugar.Fatalf("Failed to load configuration: %v", err)
	}

	db := database.Connect(cfg.DatabaseURL)
	defer db.Close()

	// The hub pushes a fresh visible-notes snapshot to every affected
	// connection whenever a note changes.
	hub := socket.NewHub(repository.NewNoteRepository(db))
	go hub.Run()

	go keepalive.Run(context.Background(), cfg.KeepaliveURL, cfg.KeepaliveInterval)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Sugar.Infof("notehub backend listening on %s", addr)
	if err := http.ListenAndServe(addr, router.Setup(db, hub, cfg)); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
