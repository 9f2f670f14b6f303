package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nextlearn/nextlearn-lms/internal/grading"
	"github.com/nextlearn/nextlearn-lms/internal/llm"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
	"github.com/nextlearn/nextlearn-lms/internal/quiz"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

type questionRequest struct {
	Text          string   `json:"text" validate:"required"`
	Type          string   `json:"type" validate:"required,oneof=multiple-choice short-answer long-answer"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points" validate:"gt=0"`
}

type quizRequest struct {
	CourseID    string            `json:"course_id" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Questions   []questionRequest `json:"questions" validate:"dive"`
}

func buildQuestions(reqs []questionRequest) ([]lms.Question, int, error) {
	questions := make([]lms.Question, 0, len(reqs))
	total := 0
	for _, q := range reqs {
		if q.Type == lms.QuestionMultipleChoice {
			if len(q.Options) < 2 || !contains(q.Options, q.CorrectAnswer) {
				return nil, 0, lms.ErrValidation
			}
		}
		questions = append(questions, lms.Question{
			ID:            uuid.NewString(),
			Text:          q.Text,
			Type:          q.Type,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
		total += q.Points
	}
	return questions, total, nil
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

// CreateQuizHandler inserts the quiz, attaches it to the course and
// refreshes enrolled students' percentages.
func CreateQuizHandler(store lms.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quizRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid quiz payload")
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

		questions, total, err := buildQuestions(req.Questions)
		if err != nil {
			writeError(w, err)
			return
		}
		now := time.Now().UTC()
		qz := lms.Quiz{
			CourseID:    req.CourseID,
			Title:       req.Title,
			Description: req.Description,
			Questions:   questions,
			TotalPoints: total,
			CreatedBy:   rbac.SubjectFromContext(r.Context()),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.CreateQuiz(r.Context(), &qz); err != nil {
			writeError(w, err)
			return
		}
		if err := store.AttachQuiz(r.Context(), req.CourseID, qz.ID); err != nil {
			writeError(w, err)
			return
		}
		if err := prog.RecalculateCourse(r.Context(), req.CourseID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, qz)
	}
}

// requireEnrollment rejects students that are not on the course roster.
// Instructors and admins pass.
func requireEnrollment(r *http.Request, course lms.Course) error {
	role := rbac.RoleFromContext(r.Context())
	if role != lms.RoleStudent {
		return nil
	}
	if !course.HasStudent(rbac.SubjectFromContext(r.Context())) {
		return lms.ErrForbidden
	}
	return nil
}

func ListCourseQuizzesHandler(store lms.Store) http.HandlerFunc {
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
		quizzes, err := store.ListQuizzesByCourse(r.Context(), courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if rbac.RoleFromContext(r.Context()) == lms.RoleStudent {
			for i := range quizzes {
				quizzes[i] = quizzes[i].StripAnswerKeys()
			}
		}
		writeJSON(w, http.StatusOK, quizzes)
	}
}

func GetQuizHandler(store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qz, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, err)
			return
		}
		course, err := store.GetCourse(r.Context(), qz.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := requireEnrollment(r, course); err != nil {
			writeError(w, err)
			return
		}
		if rbac.RoleFromContext(r.Context()) == lms.RoleStudent {
			qz = qz.StripAnswerKeys()
		}
		writeJSON(w, http.StatusOK, qz)
	}
}

type submitRequest struct {
	Answers   []quiz.AnswerInput `json:"answers" validate:"required,dive"`
	TimeTaken int                `json:"time_taken" validate:"gte=0"`
}

type submitResponse struct {
	ScorePercent   float64          `json:"score_percent"`
	Feedback       string           `json:"feedback"`
	PartialFailure bool             `json:"partial_failure"`
	PerQuestion    []grading.Result `json:"per_question"`
	SubmissionID   string           `json:"submission_id"`
}

func SubmitQuizHandler(store lms.Store, svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		qz, err := store.GetQuiz(r.Context(), quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		course, err := store.GetCourse(r.Context(), qz.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := requireEnrollment(r, course); err != nil {
			writeError(w, err)
			return
		}

		var req submitRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid submission payload")
			return
		}

		res, err := svc.Submit(r.Context(), rbac.SubjectFromContext(r.Context()), quizID, req.Answers, req.TimeTaken)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{
			ScorePercent:   res.ScorePct,
			Feedback:       res.Submission.Feedback,
			PartialFailure: res.Submission.PartialFailure,
			PerQuestion:    res.PerQuestion,
			SubmissionID:   res.Submission.ID,
		})
	}
}

type generateQuizRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	NumQuestions int    `json:"num_questions" validate:"gte=0,lte=25"`
}

// GenerateQuizHandler builds a quiz from course material via the completion
// API and stores it like any other quiz.
func GenerateQuizHandler(store lms.Store, client *llm.Client, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateQuizRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid generation payload")
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

		materials, err := store.ListMaterialsByCourse(r.Context(), req.CourseID)
		if err != nil {
			writeError(w, err)
			return
		}
		var content string
		for _, m := range materials {
			content += "Material: " + m.Title + "\n" + m.Description + "\n"
		}

		generated, err := client.GenerateQuizQuestions(r.Context(), course.Title, content, req.NumQuestions)
		if err != nil {
			writeError(w, lms.Externalf("generate quiz", err))
			return
		}

		questions := make([]lms.Question, 0, len(generated))
		total := 0
		for _, g := range generated {
			if g.Points <= 0 {
				g.Points = 1
			}
			questions = append(questions, lms.Question{
				ID:            uuid.NewString(),
				Text:          g.Text,
				Type:          g.Type,
				Options:       g.Options,
				CorrectAnswer: g.CorrectAnswer,
				Points:        g.Points,
			})
			total += g.Points
		}

		now := time.Now().UTC()
		qz := lms.Quiz{
			CourseID:    req.CourseID,
			Title:       "AI Generated Quiz - " + course.Title,
			Description: "Quiz generated from course materials",
			Questions:   questions,
			TotalPoints: total,
			CreatedBy:   rbac.SubjectFromContext(r.Context()),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.CreateQuiz(r.Context(), &qz); err != nil {
			writeError(w, err)
			return
		}
		if err := store.AttachQuiz(r.Context(), req.CourseID, qz.ID); err != nil {
			writeError(w, err)
			return
		}
		if err := prog.RecalculateCourse(r.Context(), req.CourseID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, qz)
	}
}
