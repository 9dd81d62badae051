package router

import (
	"database/sql"
	"net/http"

	"notehub/config"
	"notehub/internal/auth"
	noteHandler "notehub/internal/note"
	"notehub/internal/note/repository"
	"notehub/internal/note/service"
	"notehub/middleware"
	"notehub/socket"
)

func Setup(db *sql.DB, hub *socket.Hub, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	jwtKey := []byte(cfg.JWTSecret)
	authMW := middleware.AuthMiddleware(jwtKey)

	// Auth
	userRepo := auth.NewUserRepository(db)
	authHandler := auth.NewHandler(userRepo, jwtKey)
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)

	// Keep-warm target and health check
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Notes
	noteRepo := repository.NewNoteRepository(db)
	noteService := service.NewNoteService(noteRepo, hub)
	hub.BindGateway(func(requesterID, noteID, collaboratorID string) error {
		_, err := noteService.AddCollaborator(requesterID, noteID, collaboratorID)
		return err
	})
	notes := noteHandler.NewNoteHandler(noteService)

	mux.Handle("POST /api/note", authMW(http.HandlerFunc(notes.CreateNote)))
	mux.Handle("GET /api/note/{id}", authMW(http.HandlerFunc(notes.GetNote)))
	mux.Handle("PUT /api/note/{id}", authMW(http.HandlerFunc(notes.UpdateNote)))
	mux.Handle("DELETE /api/note/{id}", authMW(http.HandlerFunc(notes.DeleteNote)))
	mux.Handle("POST /api/note/{id}/share", authMW(http.HandlerFunc(notes.ShareNote)))
	mux.Handle("POST /api/note/{id}/restore", authMW(http.HandlerFunc(notes.RestoreNote)))
	mux.Handle("GET /api/note/{id}/history", authMW(http.HandlerFunc(notes.GetHistory)))
	mux.Handle("GET /api/get-notes/{id}", authMW(http.HandlerFunc(notes.GetNotes)))
	mux.Handle("POST /api/add-note", authMW(http.HandlerFunc(notes.ImportNote)))
	mux.Handle("POST /api/add-collaborator", authMW(http.HandlerFunc(notes.AddCollaborator)))

	// WebSocket live feed
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middleware.UserIDKey).(string)
		email, _ := r.Context().Value(middleware.UserEmailKey).(string)
		socket.ServeWs(hub, w, r, userID, email)
	})
	mux.Handle("GET /ws", authMW(wsHandler))

	return middleware.CORSMiddleware(cfg.AllowedOrigin)(mux)
}
