package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlearn/nextlearn-lms/internal/llm"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

// Result is the outcome of grading a single question.
type Result struct {
	QuestionID   string  `json:"question_id"`
	IsCorrect    bool    `json:"is_correct"`
	PointsEarned float64 `json:"points_earned"`
	MaxPoints    float64 `json:"max_points"`
	Feedback     string  `json:"feedback,omitempty"`
	GradingError bool    `json:"grading_error,omitempty"`
}

// Outcome is the result of scoring a whole submission.
type Outcome struct {
	Percent        float64
	Results        []Result
	Feedback       string
	PartialFailure bool
}

// Strategy grades a single question against one submitted value.
type Strategy interface {
	Grade(ctx context.Context, q lms.Question, value string) (Result, error)
}

// Engine scores a submission by routing each question to the strategy for
// its type. It is pure over its inputs plus one grader call per free-text
// question; persisting the outcome is the caller's job.
type Engine struct {
	strategies map[string]Strategy
}

// NewEngine installs the built-in strategies. grader may be nil, in which
// case free-text questions score zero with an explanatory note.
func NewEngine(grader llm.Grader) *Engine {
	freeText := freeTextStrategy{grader: grader}
	return &Engine{
		strategies: map[string]Strategy{
			lms.QuestionMultipleChoice: multipleChoiceStrategy{},
			lms.QuestionShortAnswer:    freeText,
			lms.QuestionLongAnswer:     freeText,
		},
	}
}

// Score grades every question of the quiz in definition order. Answers are
// keyed by question id: unknown ids are ignored, questions without a
// matching answer score zero. A grader failure downgrades that question to
// zero points and flags PartialFailure; it never aborts the rest.
func (e *Engine) Score(ctx context.Context, quiz lms.Quiz, answers map[string]string) (Outcome, error) {
	var out Outcome
	var maxPoints, earned float64
	var feedback []string

	for _, q := range quiz.Questions {
		if q.Points <= 0 {
			return Outcome{}, fmt.Errorf("%w: question %q has non-positive points", lms.ErrValidation, q.ID)
		}
		s, ok := e.strategies[q.Type]
		if !ok {
			return Outcome{}, fmt.Errorf("%w: unknown question type %q", lms.ErrValidation, q.Type)
		}

		maxPoints += float64(q.Points)

		value, answered := answers[q.ID]
		if !answered {
			out.Results = append(out.Results, Result{QuestionID: q.ID, MaxPoints: float64(q.Points)})
			continue
		}

		res, err := s.Grade(ctx, q, value)
		if err != nil {
			// External grader failure: zero score, note in feedback, keep going.
			res = Result{
				QuestionID:   q.ID,
				MaxPoints:    float64(q.Points),
				Feedback:     fmt.Sprintf("Error evaluating answer: %v", err),
				GradingError: true,
			}
			out.PartialFailure = true
		}
		res.QuestionID = q.ID
		earned += res.PointsEarned
		if res.Feedback != "" {
			feedback = append(feedback, fmt.Sprintf("Q: %s\nA: %s\nFeedback: %s", q.Text, value, res.Feedback))
		}
		out.Results = append(out.Results, res)
	}

	if maxPoints > 0 {
		out.Percent = 100 * earned / maxPoints
	}
	out.Feedback = strings.Join(feedback, "\n\n")
	return out, nil
}

// MaxPoints sums the question point values of a quiz.
func MaxPoints(quiz lms.Quiz) float64 {
	var total float64
	for _, q := range quiz.Questions {
		total += float64(q.Points)
	}
	return total
}

// --- strategies ---

// multipleChoiceStrategy awards full points iff the submitted option exactly
// equals the correct answer. Case-sensitive, no normalization.
type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Grade(_ context.Context, q lms.Question, value string) (Result, error) {
	res := Result{MaxPoints: float64(q.Points)}
	if value == q.CorrectAnswer {
		res.IsCorrect = true
		res.PointsEarned = float64(q.Points)
	}
	return res, nil
}

// freeTextStrategy delegates to the external grader, which replies with a
// structured {score, feedback} object. The score is clamped to [0, points].
type freeTextStrategy struct {
	grader llm.Grader
}

func (s freeTextStrategy) Grade(ctx context.Context, q lms.Question, value string) (Result, error) {
	res := Result{MaxPoints: float64(q.Points)}
	if s.grader == nil {
		return res, lms.Externalf("grade answer", fmt.Errorf("no grader configured"))
	}

	gr, err := s.grader.GradeAnswer(ctx, llm.GradeRequest{
		QuestionText:  q.Text,
		CorrectAnswer: q.CorrectAnswer,
		StudentAnswer: value,
		MaxPoints:     q.Points,
	})
	if err != nil {
		return res, lms.Externalf("grade answer", err)
	}

	score := gr.Score
	if score < 0 {
		score = 0
	}
	if score > float64(q.Points) {
		score = float64(q.Points)
	}
	res.PointsEarned = score
	res.Feedback = gr.Feedback
	return res, nil
}
