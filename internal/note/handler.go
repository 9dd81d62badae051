package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"notehub/internal/note/model"
	"notehub/internal/note/service"
	"notehub/middleware"
	"notehub/pkg/logger"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)

	var req model.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.CreateNote(userID, email, req.Title, req.Content)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create note: %v", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)
	noteID := r.PathValue("id")

	n, err := h.Service.GetNote(noteID, userID, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)
	noteID := r.PathValue("id")

	var patch model.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.Edit(noteID, patch, userID, email)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update note %s: %v", noteID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)
	noteID := r.PathValue("id")

	if err := h.Service.Delete(noteID, userID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete note %s: %v", noteID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (h *NoteHandler) ShareNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)
	noteID := r.PathValue("id")

	var req model.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.Share(noteID, req.Email, userID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to share note %s: %v", noteID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)
	noteID := r.PathValue("id")

	var req model.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.Restore(noteID, req, userID, email)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to restore note %s: %v", noteID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// GetNotes returns the caller's visible notes. The path id must match
// the authenticated user.
func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)
	if r.PathValue("id") != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	notes, err := h.Service.ListVisible(userID, email)
	if err != nil {
		logger.Sugar.Errorf("Error fetching notes: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)
	noteID := r.PathValue("id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.Service.ListHistory(noteID, userID, email, limit)
	if err != nil {
		logger.Sugar.Errorf("Error fetching history for note %s: %v", noteID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// ImportNote accepts a note payload built by an external source.
func (h *NoteHandler) ImportNote(w http.ResponseWriter, r *http.Request) {
	var req model.ImportNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Service.ImportNote(req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to import note: %v", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

// AddCollaborator is the REST face of the collaboration gateway.
func (h *NoteHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)

	var req model.AddCollaboratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocID == "" || req.CollaboratorID == "" {
		http.Error(w, "docId and collaboratorId are required", http.StatusBadRequest)
		return
	}

	n, err := h.Service.AddCollaborator(userID, req.DocID, req.CollaboratorID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to add collaborator to note %s: %v", req.DocID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Collaborator added successfully",
		"note":    n,
	})
}

func identity(r *http.Request) (userID, email string) {
	userID, _ = r.Context().Value(middleware.UserIDKey).(string)
	email, _ = r.Context().Value(middleware.UserEmailKey).(string)
	return userID, email
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, model.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
