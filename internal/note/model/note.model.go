package model

import "time"

// Note is the canonical note schema. The legacy source data had two
// divergent shapes (text vs title/content, collaborators vs sharedWith);
// this is the single surviving one.
type Note struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	OwnerEmail string    `json:"owner_email"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	SharedWith []string  `json:"shared_with"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HistoryEntry is a snapshot of a note's editable fields as they were
// immediately before the edit that displaced them. A nil field means the
// triggering patch did not touch it.
type HistoryEntry struct {
	ID       int64     `json:"id"`
	NoteID   string    `json:"note_id"`
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	EditedBy string    `json:"edited_by"`
	EditedAt time.Time `json:"edited_at"`
}

// Patch carries the fields of an edit. Version, when non-zero, is the
// version the caller last saw; a mismatch fails the edit instead of
// silently losing a concurrent write.
type Patch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Version int64   `json:"version,omitempty"`
}

// Empty reports whether the patch touches no fields.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ImportNoteRequest is the payload accepted from external note sources.
type ImportNoteRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Owner      string `json:"owner"`
	OwnerEmail string `json:"owner_email"`
}

type ShareRequest struct {
	Email string `json:"email"`
}

// RestoreRequest holds the history snapshot the caller wants back.
type RestoreRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// AddCollaboratorRequest is the gateway payload: the collaborator is
// identified by user id rather than email.
type AddCollaboratorRequest struct {
	DocID          string `json:"docId"`
	CollaboratorID string `json:"collaboratorId"`
}
