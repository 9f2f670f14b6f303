package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

// GetCourseProgressHandler returns the caller's record for the course,
// creating a 0% one on first read.
func GetCourseProgressHandler(prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := prog.Get(r.Context(), rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

type completeResponse struct {
	Message    string  `json:"message"`
	Percentage float64 `json:"progress_percentage"`
}

// CompleteMaterialHandler marks one material complete for the caller and
// returns the recomputed percentage.
func CompleteMaterialHandler(store lms.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetMaterial(r.Context(), chi.URLParam(r, "materialID"))
		if err != nil {
			writeError(w, err)
			return
		}
		course, err := store.GetCourse(r.Context(), m.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := requireEnrollment(r, course); err != nil {
			writeError(w, err)
			return
		}

		pct, err := prog.MarkMaterialComplete(r.Context(), rbac.SubjectFromContext(r.Context()), m.CourseID, m.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, completeResponse{Message: "material completed", Percentage: pct})
	}
}

type timeSpentRequest struct {
	Seconds int64 `json:"seconds" validate:"gt=0"`
}

func AddTimeSpentHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timeSpentRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid time payload")
			return
		}
		courseID := chi.URLParam(r, "courseID")
		userID := rbac.SubjectFromContext(r.Context())
		// materialize the record so the first time report doesn't 404
		if _, err := store.GetOrCreateProgress(r.Context(), userID, courseID); err != nil {
			writeError(w, err)
			return
		}
		if err := store.AddTimeSpent(r.Context(), userID, courseID, req.Seconds); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "time recorded"})
	}
}

// CourseAnalyticsHandler aggregates course progress and quiz statistics for
// the owning instructor or an admin.
func CourseAnalyticsHandler(store lms.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !courseOwner(r, course) {
			writeError(w, lms.ErrForbidden)
			return
		}
		analytics, err := prog.Analytics(r.Context(), course.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analytics)
	}
}

// ListSubmissionsHandler lists the caller's own attempts, or any filter for
// instructors and admins.
func ListSubmissionsHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := lms.SubmissionFilter{
			CourseID: r.URL.Query().Get("course_id"),
			QuizID:   r.URL.Query().Get("quiz_id"),
			Status:   r.URL.Query().Get("status"),
		}
		role := rbac.RoleFromContext(r.Context())
		if role == lms.RoleStudent {
			f.UserID = rbac.SubjectFromContext(r.Context())
		} else {
			f.UserID = r.URL.Query().Get("user_id")
		}

		subs, err := store.ListSubmissions(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}
