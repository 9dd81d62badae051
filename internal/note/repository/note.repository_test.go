package repository

import (
	"database/sql"
	"testing"
	"time"

	"notehub/internal/note/model"
	"notehub/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func newMockRepo(t *testing.T) (*NoteRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNoteRepository(db), mock
}

func noteRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "owner_email", "title", "content", "version", "created_at", "updated_at", "shared_with",
	})
}

func TestCreateNote(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO notes").
		WithArgs("n1", "alice", "alice@example.com", "Plans", "draft").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	n := &model.Note{ID: "n1", Owner: "alice", OwnerEmail: "alice@example.com", Title: "Plans", Content: "draft"}
	require.NoError(t, repo.CreateNote(n))
	assert.Equal(t, int64(1), n.Version)
	assert.Equal(t, []string{}, n.SharedWith)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNote(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery("FROM notes n").
		WithArgs("n1").
		WillReturnRows(noteRows().
			AddRow("n1", "alice", "alice@example.com", "Plans", "draft", 1, now, now, "{bob@example.com,carol@example.com}"))

	n, err := repo.GetNote("n1")
	require.NoError(t, err)
	assert.Equal(t, "alice", n.Owner)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, n.SharedWith)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNoteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM notes n").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetNote("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateNoteVersionConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE notes").
		WithArgs(nil, "v2", "n1", int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	content := "v2"
	_, err := repo.UpdateNote("n1", model.Patch{Content: &content}, 1)
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNoteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE notes").
		WithArgs(nil, "v2", "gone", int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	content := "v2"
	_, err := repo.UpdateNote("gone", model.Patch{Content: &content}, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateNoteAppliesPatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery("UPDATE notes").
		WithArgs(nil, "v2", "n1", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n1"))
	mock.ExpectQuery("FROM notes n").
		WithArgs("n1").
		WillReturnRows(noteRows().
			AddRow("n1", "alice", "alice@example.com", "Plans", "v2", 2, now, now, "{}"))

	content := "v2"
	n, err := repo.UpdateNote("n1", model.Patch{Content: &content}, 1)
	require.NoError(t, err)
	assert.Equal(t, "v2", n.Content)
	assert.Equal(t, int64(2), n.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNote(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM notes").
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteNote("n1"))

	mock.ExpectExec("DELETE FROM notes").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteNote("gone"), model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddShare(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO note_shares").
		WithArgs("n1", "bob@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddShare("n1", "bob@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVisible(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	earlier := now.Add(-time.Hour)
	mock.ExpectQuery("FROM notes n").
		WithArgs("alice", "alice@example.com").
		WillReturnRows(noteRows().
			AddRow("n2", "bob", "bob@example.com", "", "shared", 1, earlier, now, "{alice@example.com}").
			AddRow("n1", "alice", "alice@example.com", "", "mine", 1, earlier, earlier, "{}"))

	notes, err := repo.ListVisible("alice", "alice@example.com")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n2", notes[0].ID)
	assert.Equal(t, []string{"alice@example.com"}, notes[0].SharedWith)
	assert.Equal(t, []string{}, notes[1].SharedWith)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendHistory(t *testing.T) {
	repo, mock := newMockRepo(t)

	editedAt := time.Now().UTC()
	content := "draft"
	mock.ExpectQuery("INSERT INTO note_history").
		WithArgs("n1", nil, "draft", "alice@example.com", editedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	e := &model.HistoryEntry{NoteID: "n1", Content: &content, EditedBy: "alice@example.com", EditedAt: editedAt}
	require.NoError(t, repo.AppendHistory(e))
	assert.Equal(t, int64(7), e.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListHistoryLimit(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery("FROM note_history").
		WithArgs("n1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "note_id", "title", "content", "edited_by", "edited_at"}).
			AddRow(int64(3), "n1", nil, "v2", "alice@example.com", now).
			AddRow(int64(2), "n1", nil, "v1", "alice@example.com", now.Add(-time.Minute)))

	entries, err := repo.ListHistory("n1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Title)
	assert.Equal(t, "v2", *entries[0].Content)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserEmailByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT email FROM users").
		WithArgs("bob-id").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("bob@example.com"))

	email, err := repo.GetUserEmailByID("bob-id")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)

	mock.ExpectQuery("SELECT email FROM users").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetUserEmailByID("nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
