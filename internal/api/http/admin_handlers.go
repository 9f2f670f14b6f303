package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

func audit(r *http.Request, store lms.Store, action, resourceID string, details map[string]any) {
	_ = store.InsertAudit(r.Context(), &lms.AuditEntry{
		UserID:     rbac.SubjectFromContext(r.Context()),
		ActionType: action,
		ResourceID: resourceID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	})
}

type dashboardResponse struct {
	TotalUsers       int64 `json:"total_users"`
	TotalCourses     int64 `json:"total_courses"`
	TotalSubmissions int64 `json:"total_submissions"`
}

func DashboardHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := store.CountUsers(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		courses, err := store.CountCourses(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		subs, err := store.CountSubmissions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dashboardResponse{
			TotalUsers:       users,
			TotalCourses:     courses,
			TotalSubmissions: subs,
		})
	}
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

func SetUserRoleHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setRoleRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid role payload")
			return
		}
		id := chi.URLParam(r, "userID")
		if err := store.SetUserRole(r.Context(), id, req.Role); err != nil {
			writeError(w, err)
			return
		}
		audit(r, store, "user.role_changed", id, map[string]any{"role": req.Role})
		writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
	}
}

func AdminDeleteUserHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		if err := store.DeleteUser(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		audit(r, store, "user.deleted", id, nil)
		writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
	}
}

func ListAuditHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.ListAudit(r.Context(), listOptsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
