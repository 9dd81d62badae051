package repository

import (
	"database/sql"

	"notehub/internal/note/model"
	"notehub/pkg/logger"

	"github.com/lib/pq"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

const noteColumns = `n.id, n.owner_id, n.owner_email, n.title, n.content, n.version, n.created_at, n.updated_at,
		COALESCE(array_agg(s.email) FILTER (WHERE s.email IS NOT NULL), '{}') AS shared_with`

func (r *NoteRepository) CreateNote(n *model.Note) error {
	err := r.DB.QueryRow(`INSERT INTO notes (id, owner_id, owner_email, title, content, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, NOW(), NOW())
		RETURNING created_at, updated_at`,
		n.ID, n.Owner, n.OwnerEmail, n.Title, n.Content,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note: %v", err)
		return err
	}
	n.Version = 1
	n.SharedWith = []string{}
	return nil
}

func (r *NoteRepository) GetNote(noteID string) (*model.Note, error) {
	row := r.DB.QueryRow(`SELECT `+noteColumns+`
		FROM notes n
		LEFT JOIN note_shares s ON s.note_id = n.id
		WHERE n.id = $1
		GROUP BY n.id`, noteID)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get note %s: %v", noteID, err)
		return nil, err
	}
	return n, nil
}

// UpdateNote applies the patch only if the stored version still matches
// expectedVersion. Untouched fields keep their value via COALESCE.
func (r *NoteRepository) UpdateNote(noteID string, patch model.Patch, expectedVersion int64) (*model.Note, error) {
	err := r.DB.QueryRow(`UPDATE notes
		SET title = COALESCE($1, title),
		    content = COALESCE($2, content),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND version = $4
		RETURNING id`, patch.Title, patch.Content, noteID, expectedVersion,
	).Scan(&noteID)
	if err == sql.ErrNoRows {
		// Either the note vanished or another edit bumped the version.
		var exists bool
		if checkErr := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM notes WHERE id = $1)`, noteID).Scan(&exists); checkErr == nil && !exists {
			return nil, model.ErrNotFound
		}
		return nil, model.ErrConflict
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", noteID, err)
		return nil, err
	}
	return r.GetNote(noteID)
}

func (r *NoteRepository) DeleteNote(noteID string) error {
	result, err := r.DB.Exec(`DELETE FROM notes WHERE id = $1`, noteID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", noteID, err)
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AddShare is a set union: sharing the same email twice is a no-op.
func (r *NoteRepository) AddShare(noteID, email string) error {
	_, err := r.DB.Exec(`INSERT INTO note_shares (note_id, email) VALUES ($1, $2)
		ON CONFLICT (note_id, email) DO NOTHING`, noteID, email)
	if err != nil {
		logger.Sugar.Errorf("Failed to share note %s with %s: %v", noteID, email, err)
	}
	return err
}

// ListVisible returns every note the user owns or that is shared with
// their email, one row per note, latest-updated first.
func (r *NoteRepository) ListVisible(userID, email string) ([]model.Note, error) {
	rows, err := r.DB.Query(`SELECT `+noteColumns+`
		FROM notes n
		LEFT JOIN note_shares s ON s.note_id = n.id
		WHERE n.owner_id = $1
		   OR EXISTS (SELECT 1 FROM note_shares sw WHERE sw.note_id = n.id AND sw.email = $2)
		GROUP BY n.id
		ORDER BY COALESCE(n.updated_at, n.created_at) DESC`, userID, email)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan note row: %v", err)
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) AppendHistory(e *model.HistoryEntry) error {
	err := r.DB.QueryRow(`INSERT INTO note_history (note_id, title, content, edited_by, edited_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.NoteID, e.Title, e.Content, e.EditedBy, e.EditedAt,
	).Scan(&e.ID)
	if err != nil {
		logger.Sugar.Errorf("Failed to append history for note %s: %v", e.NoteID, err)
	}
	return err
}

// ListHistory returns history entries latest first. A limit <= 0 means
// the full sequence; truncation is a display concern only.
func (r *NoteRepository) ListHistory(noteID string, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT id, note_id, title, content, edited_by, edited_at
		FROM note_history WHERE note_id = $1
		ORDER BY edited_at DESC, id DESC`
	args := []interface{}{noteID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list history for note %s: %v", noteID, err)
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.NoteID, &e.Title, &e.Content, &e.EditedBy, &e.EditedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan history row: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *NoteRepository) GetUserEmailByID(userID string) (string, error) {
	var email string
	err := r.DB.QueryRow(`SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err == sql.ErrNoRows {
		return "", model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get user %s: %v", userID, err)
		return "", err
	}
	return email, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var n model.Note
	var shared pq.StringArray
	err := row.Scan(&n.ID, &n.Owner, &n.OwnerEmail, &n.Title, &n.Content, &n.Version, &n.CreatedAt, &n.UpdatedAt, &shared)
	if err != nil {
		return nil, err
	}
	n.SharedWith = []string(shared)
	if n.SharedWith == nil {
		n.SharedWith = []string{}
	}
	return &n, nil
}
