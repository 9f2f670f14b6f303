package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

func listOptsFromQuery(r *http.Request) lms.ListOpts {
	opts := lms.ListOpts{}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}
	return opts
}

func ListUsersHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := store.ListUsers(r.Context(), listOptsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// GetUserHandler returns a user. The route gate lets through the profile
// owner or a role holding user:manage.
func GetUserHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := store.GetUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func UpdateUserHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid user payload")
			return
		}
		u, err := store.GetUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Name != "" {
			u.Name = req.Name
		}
		if req.Email != "" {
			u.Email = req.Email
		}
		if err := store.UpdateUser(r.Context(), &u); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
