package http

import (
	"net/http"
	"time"

	"github.com/nextlearn/nextlearn-lms/internal/auth"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

func RegisterHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid registration payload")
			return
		}
		if req.Role == "" {
			req.Role = lms.RoleStudent
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		now := time.Now().UTC()
		u := lms.User{
			Email:           req.Email,
			Name:            req.Name,
			Role:            req.Role,
			PasswordHash:    hash,
			Active:          true,
			EnrolledCourses: []string{},
			LastLogin:       now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := store.CreateUser(r.Context(), &u); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func LoginHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid login payload")
			return
		}
		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
			return
		}
		tok, err := svc.IssueToken(u.ID, u.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
	}
}

func MeHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := store.GetUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
