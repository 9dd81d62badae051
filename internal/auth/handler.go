package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"notehub/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Repo   *UserRepository
	jwtKey []byte
}

func NewHandler(repo *UserRepository, jwtKey []byte) *Handler {
	return &Handler{Repo: repo, jwtKey: jwtKey}
}

// Claims carries the user id as subject plus the email the note layer
// uses for sharing checks.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(req.Email, "@") || req.Password == "" {
		respond(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if _, err := h.Repo.GetUserByEmail(req.Email); err == nil {
		respond(w, http.StatusBadRequest, "User already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		respond(w, http.StatusInternalServerError, "Server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Sugar.Errorf("Failed to hash password: %v", err)
		respond(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hashed),
	}
	if err := h.Repo.CreateUser(user); err != nil {
		respond(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.issueToken(w, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.Repo.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respond(w, http.StatusBadRequest, "User not found")
			return
		}
		respond(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond(w, http.StatusBadRequest, "Incorrect password")
		return
	}

	h.issueToken(w, user)
}

func (h *Handler) issueToken(w http.ResponseWriter, user *User) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString(h.jwtKey)
	if err != nil {
		logger.Sugar.Errorf("Failed to sign token: %v", err)
		respond(w, http.StatusInternalServerError, "Server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"token":   signed,
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func respond(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
