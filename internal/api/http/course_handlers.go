package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

type courseRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Objectives  []string `json:"objectives"`
}

func CreateCourseHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid course payload")
			return
		}
		now := time.Now().UTC()
		c := lms.Course{
			Title:        req.Title,
			Description:  req.Description,
			InstructorID: rbac.SubjectFromContext(r.Context()),
			Objectives:   req.Objectives,
			MaterialIDs:  []string{},
			QuizIDs:      []string{},
			StudentIDs:   []string{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.CreateCourse(r.Context(), &c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func ListCoursesHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := store.ListCourses(r.Context(), listOptsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

func GetCourseHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// courseOwner gates mutations to the owning instructor or an admin.
func courseOwner(r *http.Request, c lms.Course) bool {
	caller := rbac.SubjectFromContext(r.Context())
	return c.InstructorID == caller || rbac.RoleFromContext(r.Context()) == lms.RoleAdmin
}

func UpdateCourseHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !courseOwner(r, c) {
			writeError(w, lms.ErrForbidden)
			return
		}
		var req courseRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid course payload")
			return
		}
		c.Title = req.Title
		c.Description = req.Description
		if req.Objectives != nil {
			c.Objectives = req.Objectives
		}
		if err := store.UpdateCourse(r.Context(), &c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func DeleteCourseHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !courseOwner(r, c) {
			writeError(w, lms.ErrForbidden)
			return
		}
		if err := store.DeleteCourse(r.Context(), c.ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "course deleted"})
	}
}

// EnrollHandler adds the caller (or, for instructors/admins, a named
// student) to the course roster.
func EnrollHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		userID := rbac.SubjectFromContext(r.Context())

		var req struct {
			UserID string `json:"user_id"`
		}
		// body is optional: students enroll themselves
		_ = decode(r, &req)
		if req.UserID != "" && req.UserID != userID {
			role := rbac.RoleFromContext(r.Context())
			if role != lms.RoleInstructor && role != lms.RoleAdmin {
				writeError(w, lms.ErrForbidden)
				return
			}
			userID = req.UserID
		}

		if err := store.EnrollStudent(r.Context(), courseID, userID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "enrolled"})
	}
}
