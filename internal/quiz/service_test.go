package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlearn/nextlearn-lms/internal/grading"
	"github.com/nextlearn/nextlearn-lms/internal/llm"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
	"github.com/nextlearn/nextlearn-lms/internal/quiz"
)

type stubGrader struct {
	result llm.GradeResult
	err    error
}

func (s stubGrader) GradeAnswer(_ context.Context, _ llm.GradeRequest) (llm.GradeResult, error) {
	return s.result, s.err
}

func setup(t *testing.T, grader llm.Grader) (lms.Store, *quiz.Service, lms.Course, lms.Quiz) {
	t.Helper()
	store := lms.NewInMemoryStore()
	prog := progress.NewService(store)
	svc := quiz.NewService(store, grading.NewEngine(grader), prog)
	ctx := context.Background()

	c := lms.Course{Title: "Networking"}
	if err := store.CreateCourse(ctx, &c); err != nil {
		t.Fatal(err)
	}
	qz := lms.Quiz{
		CourseID: c.ID,
		Title:    "Basics",
		Questions: []lms.Question{
			{ID: "q1", Text: "pick", Type: lms.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "B", Points: 5},
			{ID: "q2", Text: "explain", Type: lms.QuestionShortAnswer, Points: 5},
		},
		TotalPoints: 10,
	}
	if err := store.CreateQuiz(ctx, &qz); err != nil {
		t.Fatal(err)
	}
	if err := store.AttachQuiz(ctx, c.ID, qz.ID); err != nil {
		t.Fatal(err)
	}
	return store, svc, c, qz
}

func TestSubmitPersistsCompletedSubmission(t *testing.T) {
	store, svc, c, qz := setup(t, stubGrader{result: llm.GradeResult{Score: 5, Feedback: "solid"}})
	ctx := context.Background()

	res, err := svc.Submit(ctx, "u1", qz.ID, []quiz.AnswerInput{
		{QuestionID: "q1", Answer: "B"},
		{QuestionID: "q2", Answer: "routing"},
	}, 120)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ScorePct != 100.0 {
		t.Errorf("score = %v, want 100.0", res.ScorePct)
	}
	if res.Submission.Status != lms.SubmissionCompleted {
		t.Errorf("status = %q, want completed", res.Submission.Status)
	}
	if res.Submission.TotalScore != 10 || res.Submission.MaxScore != 10 {
		t.Errorf("scores = %v/%v, want 10/10", res.Submission.TotalScore, res.Submission.MaxScore)
	}
	if len(res.Submission.Answers) != 2 {
		t.Errorf("answers = %d, want 2", len(res.Submission.Answers))
	}

	stored, err := store.GetSubmission(ctx, res.Submission.ID)
	if err != nil {
		t.Fatalf("submission not persisted: %v", err)
	}
	if stored.TimeTaken != 120 {
		t.Errorf("time taken = %d, want 120", stored.TimeTaken)
	}

	// the quiz must now count toward course progress; this quiz is the only
	// course item, so the percentage jumps to 100
	rec, err := store.GetProgress(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(rec.CompletedQuizzes) != 1 || rec.Percentage != 100.0 {
		t.Errorf("progress = %+v, want quiz completed at 100%%", rec)
	}
}

func TestSubmitGraderFailureStillCompletes(t *testing.T) {
	store, svc, _, qz := setup(t, stubGrader{err: errors.New("timeout")})
	ctx := context.Background()

	res, err := svc.Submit(ctx, "u1", qz.ID, []quiz.AnswerInput{
		{QuestionID: "q1", Answer: "B"},
		{QuestionID: "q2", Answer: "something"},
	}, 60)
	if err != nil {
		t.Fatalf("Submit must not abort on grader failure: %v", err)
	}
	if !res.Submission.PartialFailure {
		t.Error("PartialFailure not set on the stored submission")
	}
	if res.ScorePct != 50.0 {
		t.Errorf("score = %v, want 50.0 (free-text question zeroed)", res.ScorePct)
	}
	if res.Submission.Status != lms.SubmissionCompleted {
		t.Errorf("status = %q, want completed despite the failure", res.Submission.Status)
	}

	stored, err := store.GetSubmission(ctx, res.Submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.PartialFailure {
		t.Error("partial failure flag lost on persistence")
	}
}

func TestSubmitLastAnswerWinsPerQuestion(t *testing.T) {
	_, svc, _, qz := setup(t, stubGrader{})
	res, err := svc.Submit(context.Background(), "u1", qz.ID, []quiz.AnswerInput{
		{QuestionID: "q1", Answer: "A"},
		{QuestionID: "q1", Answer: "B"},
	}, 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Submission.TotalScore != 5 {
		t.Errorf("total = %v, want 5 (last answer for q1 is correct)", res.Submission.TotalScore)
	}
}

func TestSubmitUnknownQuiz(t *testing.T) {
	_, svc, _, _ := setup(t, stubGrader{})
	_, err := svc.Submit(context.Background(), "u1", "missing", nil, 0)
	if !errors.Is(err, lms.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
