package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

type materialRequest struct {
	CourseID      string   `json:"course_id" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Type          string   `json:"type" validate:"required,oneof=document video link assignment"`
	ContentURL    string   `json:"content_url" validate:"required,url"`
	Tags          []string `json:"tags"`
	Difficulty    string   `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedMins int      `json:"estimated_time" validate:"gte=0"`
}

// CreateMaterialHandler inserts the material, appends it to the course item
// list and refreshes enrolled students' percentages, since the denominator
// just grew.
func CreateMaterialHandler(store lms.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req materialRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid material payload")
			return
		}
		course, err := store.GetCourse(r.Context(), req.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !courseOwner(r, course) {
			writeError(w, lms.ErrForbidden)
			return
		}

		now := time.Now().UTC()
		m := lms.Material{
			CourseID:      req.CourseID,
			Title:         req.Title,
			Description:   req.Description,
			Type:          req.Type,
			ContentURL:    req.ContentURL,
			Tags:          req.Tags,
			Difficulty:    req.Difficulty,
			EstimatedMins: req.EstimatedMins,
			Published:     true,
			CreatedBy:     rbac.SubjectFromContext(r.Context()),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := store.CreateMaterial(r.Context(), &m); err != nil {
			writeError(w, err)
			return
		}
		if err := store.AttachMaterial(r.Context(), req.CourseID, m.ID); err != nil {
			writeError(w, err)
			return
		}
		if err := prog.RecalculateCourse(r.Context(), req.CourseID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func GetMaterialHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "materialID")
		m, err := store.GetMaterial(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		_ = store.IncrementMaterialViews(r.Context(), id)
		writeJSON(w, http.StatusOK, m)
	}
}

func ListCourseMaterialsHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		materials, err := store.ListMaterialsByCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, materials)
	}
}

func UpdateMaterialHandler(store lms.Store) http.HandlerFunc {
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
		if !courseOwner(r, course) {
			writeError(w, lms.ErrForbidden)
			return
		}

		var req materialRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid material payload")
			return
		}
		m.Title = req.Title
		m.Description = req.Description
		m.Type = req.Type
		m.ContentURL = req.ContentURL
		m.Tags = req.Tags
		m.Difficulty = req.Difficulty
		m.EstimatedMins = req.EstimatedMins
		if err := store.UpdateMaterial(r.Context(), &m); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// DeleteMaterialHandler removes the material from the course list too, then
// refreshes percentages against the smaller denominator.
func DeleteMaterialHandler(store lms.Store, prog *progress.Service) http.HandlerFunc {
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
		if !courseOwner(r, course) {
			writeError(w, lms.ErrForbidden)
			return
		}
		if err := store.DeleteMaterial(r.Context(), m.ID); err != nil {
			writeError(w, err)
			return
		}
		if err := store.DetachMaterial(r.Context(), m.CourseID, m.ID); err != nil {
			writeError(w, err)
			return
		}
		if err := prog.RecalculateCourse(r.Context(), m.CourseID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "material deleted"})
	}
}

func LikeMaterialHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.LikeMaterial(r.Context(), chi.URLParam(r, "materialID")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "liked"})
	}
}
