package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nextlearn/nextlearn-lms/internal/llm"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

type generateContentRequest struct {
	Topic  string `json:"topic" validate:"required"`
	Format string `json:"format" validate:"omitempty,oneof=outline summary lesson"`
}

type aiTextResponse struct {
	Content string `json:"content"`
}

// GenerateContentHandler drafts course content for instructors.
func GenerateContentHandler(client *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid content payload")
			return
		}
		if req.Format == "" {
			req.Format = "outline"
		}

		system := "You are an expert curriculum designer for an online learning platform."
		prompt := fmt.Sprintf("Create a course %s for the topic: %s. Keep it structured and practical.", req.Format, req.Topic)
		out, err := client.Complete(r.Context(), system, prompt)
		if err != nil {
			writeError(w, lms.Externalf("generate content", err))
			return
		}
		writeJSON(w, http.StatusOK, aiTextResponse{Content: out})
	}
}

// AnalyzePerformanceHandler summarizes the caller's submissions and progress
// into narrative feedback.
func AnalyzePerformanceHandler(store lms.Store, client *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		subs, err := store.ListSubmissions(r.Context(), lms.SubmissionFilter{UserID: userID})
		if err != nil {
			writeError(w, err)
			return
		}
		if len(subs) == 0 {
			writeJSON(w, http.StatusOK, aiTextResponse{Content: "No quiz attempts yet. Complete a quiz to get a performance analysis."})
			return
		}

		var sb strings.Builder
		for _, s := range subs {
			pct := 0.0
			if s.MaxScore > 0 {
				pct = 100 * s.TotalScore / s.MaxScore
			}
			fmt.Fprintf(&sb, "- quiz %s: %.1f%% (%s)\n", s.QuizID, pct, s.Status)
		}

		system := "You are a supportive learning coach."
		prompt := "Analyze this student's quiz history and give concise, actionable feedback:\n" + sb.String()
		out, err := client.Complete(r.Context(), system, prompt)
		if err != nil {
			writeError(w, lms.Externalf("analyze performance", err))
			return
		}
		writeJSON(w, http.StatusOK, aiTextResponse{Content: out})
	}
}

// RecommendationsHandler suggests next courses based on what the caller is
// enrolled in and what the catalog offers.
func RecommendationsHandler(store lms.Store, client *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := store.GetUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		catalog, err := store.ListCourses(r.Context(), lms.ListOpts{Limit: 50})
		if err != nil {
			writeError(w, err)
			return
		}

		enrolled := make(map[string]bool, len(u.EnrolledCourses))
		for _, id := range u.EnrolledCourses {
			enrolled[id] = true
		}
		var sb strings.Builder
		for _, c := range catalog {
			tag := "available"
			if enrolled[c.ID] {
				tag = "enrolled"
			}
			fmt.Fprintf(&sb, "- %s (%s): %s\n", c.Title, tag, c.Description)
		}

		system := "You are a learning advisor recommending courses."
		prompt := "Given this catalog, recommend up to 3 courses the student is not enrolled in, with one sentence of rationale each:\n" + sb.String()
		out, err := client.Complete(r.Context(), system, prompt)
		if err != nil {
			writeError(w, lms.Externalf("recommendations", err))
			return
		}
		writeJSON(w, http.StatusOK, aiTextResponse{Content: out})
	}
}

type assistantRequest struct {
	Question string `json:"question" validate:"required"`
	CourseID string `json:"course_id"`
}

// AssistantHandler answers a free-form study question, grounded in course
// material titles when a course is given.
func AssistantHandler(store lms.Store, client *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assistantRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid assistant payload")
			return
		}

		system := "You are a helpful teaching assistant. Answer clearly and briefly."
		prompt := req.Question
		if req.CourseID != "" {
			materials, err := store.ListMaterialsByCourse(r.Context(), req.CourseID)
			if err == nil && len(materials) > 0 {
				var sb strings.Builder
				sb.WriteString("Course context:\n")
				for _, m := range materials {
					fmt.Fprintf(&sb, "- %s: %s\n", m.Title, m.Description)
				}
				sb.WriteString("\nQuestion: " + req.Question)
				prompt = sb.String()
			}
		}

		out, err := client.Complete(r.Context(), system, prompt)
		if err != nil {
			writeError(w, lms.Externalf("assistant", err))
			return
		}
		writeJSON(w, http.StatusOK, aiTextResponse{Content: out})
	}
}
