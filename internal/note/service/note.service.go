package service

import (
	"fmt"
	"strings"
	"time"

	"notehub/internal/note/model"
	"notehub/socket"

	"github.com/google/uuid"
)

// Store is the persistence capability set the service needs. The
// Postgres implementation lives in the repository package; tests inject
// an in-memory fake.
type Store interface {
	CreateNote(n *model.Note) error
	GetNote(noteID string) (*model.Note, error)
	UpdateNote(noteID string, patch model.Patch, expectedVersion int64) (*model.Note, error)
	DeleteNote(noteID string) error
	AddShare(noteID, email string) error
	ListVisible(userID, email string) ([]model.Note, error)
	AppendHistory(e *model.HistoryEntry) error
	ListHistory(noteID string, limit int) ([]model.HistoryEntry, error)
	GetUserEmailByID(userID string) (string, error)
}

type NoteService struct {
	Store Store
	Hub   *socket.Hub
}

func NewNoteService(store Store, hub *socket.Hub) *NoteService {
	return &NoteService{Store: store, Hub: hub}
}

// CreateNote makes a fresh note owned by the caller, with no shares and
// no history.
func (s *NoteService) CreateNote(ownerID, ownerEmail, title, content string) (*model.Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return nil, fmt.Errorf("%w: note must have a title or content", model.ErrInvalidInput)
	}

	n := &model.Note{
		ID:         uuid.NewString(),
		Owner:      ownerID,
		OwnerEmail: ownerEmail,
		Title:      title,
		Content:    content,
	}
	if err := s.Store.CreateNote(n); err != nil {
		return nil, err
	}

	s.Hub.NotifyChange(audienceOf(n))
	return n, nil
}

// ImportNote ingests a note built by an external source on behalf of the
// given owner.
func (s *NoteService) ImportNote(req model.ImportNoteRequest) (*model.Note, error) {
	if req.Owner == "" {
		return nil, fmt.Errorf("%w: owner is required", model.ErrInvalidInput)
	}
	return s.CreateNote(req.Owner, strings.ToLower(strings.TrimSpace(req.OwnerEmail)), req.Title, req.Content)
}

// Edit applies the patch and appends exactly one history entry holding
// the pre-edit values of the patched fields. When the caller supplies the
// version it last saw, a stale version fails with ErrConflict instead of
// silently overwriting a concurrent edit.
func (s *NoteService) Edit(noteID string, patch model.Patch, editorID, editorEmail string) (*model.Note, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: patch must set title or content", model.ErrInvalidInput)
	}

	current, err := s.Store.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(current, editorID, editorEmail) {
		return nil, model.ErrForbidden
	}
	if patch.Version != 0 && patch.Version != current.Version {
		return nil, model.ErrConflict
	}

	updated, err := s.Store.UpdateNote(noteID, patch, current.Version)
	if err != nil {
		return nil, err
	}

	entry := &model.HistoryEntry{
		NoteID:   noteID,
		EditedBy: editorIdentity(editorID, editorEmail),
		EditedAt: time.Now().UTC(),
	}
	if patch.Title != nil {
		prev := current.Title
		entry.Title = &prev
	}
	if patch.Content != nil {
		prev := current.Content
		entry.Content = &prev
	}
	if err := s.Store.AppendHistory(entry); err != nil {
		// The field update already landed; the caller sees the failure
		// and the note is left without this history entry.
		return nil, fmt.Errorf("edit applied but history append failed: %w", err)
	}

	s.Hub.NotifyChange(audienceOf(updated))
	return updated, nil
}

// Restore brings back a prior snapshot. It is defined as an ordinary
// edit, so it pushes the pre-restore state onto history itself.
func (s *NoteService) Restore(noteID string, req model.RestoreRequest, editorID, editorEmail string) (*model.Note, error) {
	patch := model.Patch{Title: req.Title, Content: req.Content}
	return s.Edit(noteID, patch, editorID, editorEmail)
}

// Share grants visibility to an email. Owner-only; idempotent.
func (s *NoteService) Share(noteID, email, requesterID string) (*model.Note, error) {
	n, err := s.Store.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if n.Owner != requesterID {
		return nil, model.ErrForbidden
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailLike(email) {
		return nil, fmt.Errorf("%w: %q is not a valid email", model.ErrInvalidInput, email)
	}

	if err := s.Store.AddShare(noteID, email); err != nil {
		return nil, err
	}

	updated, err := s.Store.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	s.Hub.NotifyChange(audienceOf(updated))
	return updated, nil
}

// Delete permanently removes the note. Owner-only. History rows are left
// behind on purpose; there is no tombstone.
func (s *NoteService) Delete(noteID, requesterID string) error {
	n, err := s.Store.GetNote(noteID)
	if err != nil {
		return err
	}
	if n.Owner != requesterID {
		return model.ErrForbidden
	}

	if err := s.Store.DeleteNote(noteID); err != nil {
		return err
	}

	// Everyone who could see the note watches it disappear.
	s.Hub.NotifyChange(audienceOf(n))
	return nil
}

// GetNote returns the note if the viewer has visibility.
func (s *NoteService) GetNote(noteID, viewerID, viewerEmail string) (*model.Note, error) {
	n, err := s.Store.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(n, viewerID, viewerEmail) {
		return nil, model.ErrForbidden
	}
	return n, nil
}

// ListVisible returns the union of owned and shared-with notes, one row
// per note, latest-updated first.
func (s *NoteService) ListVisible(userID, email string) ([]model.Note, error) {
	return s.Store.ListVisible(userID, strings.ToLower(email))
}

// ListHistory returns the note's history, most recent first. The limit is
// a display concern; zero means everything.
func (s *NoteService) ListHistory(noteID, viewerID, viewerEmail string, limit int) ([]model.HistoryEntry, error) {
	n, err := s.Store.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(n, viewerID, viewerEmail) {
		return nil, model.ErrForbidden
	}
	return s.Store.ListHistory(noteID, limit)
}

// AddCollaborator is the collaboration gateway operation: the
// collaborator arrives as a user id, gets resolved to their email, and
// the grant goes through the same owner-only Share path.
func (s *NoteService) AddCollaborator(requesterID, noteID, collaboratorID string) (*model.Note, error) {
	email, err := s.Store.GetUserEmailByID(collaboratorID)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, fmt.Errorf("%w: collaborator %q not found", model.ErrInvalidInput, collaboratorID)
		}
		return nil, err
	}
	return s.Share(noteID, email, requesterID)
}

func visibleTo(n *model.Note, userID, email string) bool {
	if n.Owner == userID {
		return true
	}
	email = strings.ToLower(email)
	for _, e := range n.SharedWith {
		if email != "" && e == email {
			return true
		}
	}
	return false
}

func editorIdentity(userID, email string) string {
	if email != "" {
		return email
	}
	if userID != "" {
		return userID
	}
	return "unknown"
}

// emailLike is a minimal shape check, not RFC validation.
func emailLike(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}

func audienceOf(n *model.Note) socket.NoteAudience {
	return socket.NoteAudience{OwnerID: n.Owner, Emails: n.SharedWith}
}
