package quiz

import (
	"context"
	"time"

	"github.com/nextlearn/nextlearn-lms/internal/grading"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
)

// Service runs the submission workflow: score the answers, persist the
// attempt, mark the quiz complete and let the recalculator refresh the
// course percentage.
type Service struct {
	store    lms.Store
	engine   *grading.Engine
	progress *progress.Service
}

func NewService(store lms.Store, engine *grading.Engine, prog *progress.Service) *Service {
	return &Service{store: store, engine: engine, progress: prog}
}

// AnswerInput is one raw answer keyed by question id.
type AnswerInput struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

// SubmitResult is what the submit endpoint returns.
type SubmitResult struct {
	Submission  lms.Submission   `json:"submission"`
	ScorePct    float64          `json:"score_percent"`
	PerQuestion []grading.Result `json:"per_question"`
}

// Submit scores and finalizes one quiz attempt. The submission reaches
// status completed only after every question has been scored; grader
// failures degrade individual questions to zero and set PartialFailure
// instead of aborting.
func (s *Service) Submit(ctx context.Context, userID, quizID string, answers []AnswerInput, timeTaken int) (SubmitResult, error) {
	qz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}

	byQuestion := make(map[string]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answer
	}

	outcome, err := s.engine.Score(ctx, qz, byQuestion)
	if err != nil {
		return SubmitResult{}, err
	}

	now := time.Now().UTC()
	sub := lms.Submission{
		UserID:         userID,
		QuizID:         qz.ID,
		CourseID:       qz.CourseID,
		TotalScore:     earnedPoints(outcome.Results),
		MaxScore:       grading.MaxPoints(qz),
		TimeTaken:      timeTaken,
		Status:         lms.SubmissionCompleted,
		Feedback:       outcome.Feedback,
		PartialFailure: outcome.PartialFailure,
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, r := range outcome.Results {
		sub.Answers = append(sub.Answers, lms.Answer{
			QuestionID:   r.QuestionID,
			Value:        byQuestion[r.QuestionID],
			IsCorrect:    r.IsCorrect,
			PointsEarned: r.PointsEarned,
		})
	}

	if err := s.store.CreateSubmission(ctx, &sub); err != nil {
		return SubmitResult{}, err
	}
	if _, err := s.progress.MarkQuizComplete(ctx, userID, qz.CourseID, qz.ID); err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{Submission: sub, ScorePct: outcome.Percent, PerQuestion: outcome.Results}, nil
}

func earnedPoints(results []grading.Result) float64 {
	var total float64
	for _, r := range results {
		total += r.PointsEarned
	}
	return total
}
