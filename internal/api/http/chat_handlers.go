package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

// ChatHistoryHandler returns persisted room messages, oldest first.
func ChatHistoryHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		course, err := store.GetCourse(r.Context(), courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := requireEnrollment(r, course); err != nil {
			writeError(w, err)
			return
		}
		msgs, err := store.ListMessages(r.Context(), courseID, listOptsFromQuery(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// PinMessageHandler marks one room message as pinned. Owner or admin only.
func PinMessageHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		course, err := store.GetCourse(r.Context(), courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !courseOwner(r, course) {
			writeError(w, lms.ErrForbidden)
			return
		}
		if err := store.PinMessage(r.Context(), courseID, chi.URLParam(r, "messageID")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "pinned"})
	}
}
