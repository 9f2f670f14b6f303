package progress_test

import (
	"context"
	"testing"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
)

func TestAnalyticsAggregatesProgressAndScores(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	ctx := context.Background()

	c := seedCourse(t, store, 2, 0)
	if _, err := svc.MarkMaterialComplete(ctx, "u1", c.ID, "mat-0"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkMaterialComplete(ctx, "u2", c.ID, "mat-0"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkMaterialComplete(ctx, "u2", c.ID, "mat-1"); err != nil {
		t.Fatal(err)
	}

	subs := []lms.Submission{
		{UserID: "u1", QuizID: "q", CourseID: c.ID, TotalScore: 8, MaxScore: 10, Status: lms.SubmissionCompleted},
		{UserID: "u2", QuizID: "q", CourseID: c.ID, TotalScore: 4, MaxScore: 10, Status: lms.SubmissionCompleted},
		{UserID: "u3", QuizID: "q", CourseID: c.ID, Status: lms.SubmissionInProgress},
	}
	for i := range subs {
		if err := store.CreateSubmission(ctx, &subs[i]); err != nil {
			t.Fatal(err)
		}
	}

	a, err := svc.Analytics(ctx, c.ID)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.TotalStudents != 2 {
		t.Errorf("total students = %d, want 2", a.TotalStudents)
	}
	if a.CompletedStudents != 1 {
		t.Errorf("completed students = %d, want 1", a.CompletedStudents)
	}
	if a.AverageProgress != 75.0 {
		t.Errorf("average progress = %v, want 75.0", a.AverageProgress)
	}

	qs := a.QuizStatistics
	if qs.AverageScore != 60.0 {
		t.Errorf("average score = %v, want 60.0", qs.AverageScore)
	}
	if qs.HighestScore != 80.0 || qs.LowestScore != 40.0 {
		t.Errorf("high/low = %v/%v, want 80.0/40.0", qs.HighestScore, qs.LowestScore)
	}
	if qs.CompletionRate < 66.6 || qs.CompletionRate > 66.7 {
		t.Errorf("completion rate = %v, want ~66.67", qs.CompletionRate)
	}
}

func TestAnalyticsEmptyCourse(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	c := seedCourse(t, store, 1, 0)

	a, err := svc.Analytics(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.TotalStudents != 0 || a.AverageProgress != 0 {
		t.Errorf("empty course analytics = %+v, want zeroes", a)
	}
	if a.QuizStatistics.CompletionRate != 0 {
		t.Errorf("completion rate = %v, want 0 with no submissions", a.QuizStatistics.CompletionRate)
	}
}
