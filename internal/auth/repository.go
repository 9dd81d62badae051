package auth

import (
	"database/sql"

	"notehub/pkg/logger"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(u *User) error {
	_, err := r.DB.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, NOW())`,
		u.ID, u.Email, u.PasswordHash)
	if err != nil {
		logger.Sugar.Errorf("Failed to create user %s: %v", u.Email, err)
	}
	return err
}

// GetUserByEmail returns sql.ErrNoRows when the email is unknown.
func (r *UserRepository) GetUserByEmail(email string) (*User, error) {
	var u User
	err := r.DB.QueryRow(`SELECT id, email, password_hash FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
		}
		return nil, err
	}
	return &u, nil
}
