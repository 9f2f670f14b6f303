package progress_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
)

func seedCourse(t *testing.T, store lms.Store, materials, quizzes int) lms.Course {
	t.Helper()
	c := lms.Course{Title: "course", InstructorID: "teacher-1"}
	for i := 0; i < materials; i++ {
		c.MaterialIDs = append(c.MaterialIDs, fmt.Sprintf("mat-%d", i))
	}
	for i := 0; i < quizzes; i++ {
		c.QuizIDs = append(c.QuizIDs, fmt.Sprintf("quiz-%d", i))
	}
	if err := store.CreateCourse(context.Background(), &c); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

func TestMarkMaterialCompleteRecomputesPercentage(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	c := seedCourse(t, store, 4, 1) // 5 items total

	pct, err := svc.MarkMaterialComplete(context.Background(), "u1", c.ID, "mat-0")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if pct != 20.0 {
		t.Errorf("pct = %v, want 20.0", pct)
	}

	pct, err = svc.MarkMaterialComplete(context.Background(), "u1", c.ID, "mat-1")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if pct != 40.0 {
		t.Errorf("pct = %v, want 40.0", pct)
	}
}

func TestMarkMaterialCompleteIdempotent(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	c := seedCourse(t, store, 2, 0)

	for i := 0; i < 3; i++ {
		pct, err := svc.MarkMaterialComplete(context.Background(), "u1", c.ID, "mat-0")
		if err != nil {
			t.Fatalf("mark #%d: %v", i, err)
		}
		if pct != 50.0 {
			t.Errorf("mark #%d: pct = %v, want 50.0", i, pct)
		}
	}

	rec, err := store.GetProgress(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if len(rec.CompletedMaterials) != 1 {
		t.Errorf("completed materials = %v, want single entry", rec.CompletedMaterials)
	}
}

func TestMarkQuizCompleteCountsTowardProgress(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	c := seedCourse(t, store, 1, 1)

	if _, err := svc.MarkMaterialComplete(context.Background(), "u1", c.ID, "mat-0"); err != nil {
		t.Fatalf("mark material: %v", err)
	}
	pct, err := svc.MarkQuizComplete(context.Background(), "u1", c.ID, "quiz-0")
	if err != nil {
		t.Fatalf("mark quiz: %v", err)
	}
	if pct != 100.0 {
		t.Errorf("pct = %v, want 100.0", pct)
	}
}

func TestRecalculateEmptyCourseLeavesRecordUntouched(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	c := seedCourse(t, store, 0, 0)

	pct, err := svc.Recalculate(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if pct != 0 {
		t.Errorf("pct = %v, want 0 for empty course", pct)
	}
}

func TestRecalculateAfterCourseShrinks(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	c := seedCourse(t, store, 2, 0)
	ctx := context.Background()

	if _, err := svc.MarkMaterialComplete(ctx, "u1", c.ID, "mat-0"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkMaterialComplete(ctx, "u1", c.ID, "mat-1"); err != nil {
		t.Fatal(err)
	}

	// drop one material; completions now exceed current item count
	if err := store.DetachMaterial(ctx, c.ID, "mat-1"); err != nil {
		t.Fatal(err)
	}
	pct, err := svc.Recalculate(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if pct != 100.0 {
		t.Errorf("pct = %v, want capped at 100.0", pct)
	}
}

func TestRecalculateCourseRefreshesAllStudents(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	ctx := context.Background()

	c := seedCourse(t, store, 1, 0)
	for _, u := range []string{"u1", "u2"} {
		if err := store.EnrollStudent(ctx, c.ID, u); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.MarkMaterialComplete(ctx, "u1", c.ID, "mat-0"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkMaterialComplete(ctx, "u2", c.ID, "mat-0"); err != nil {
		t.Fatal(err)
	}

	// a second material halves everyone's percentage
	if err := store.AttachMaterial(ctx, c.ID, "mat-extra"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecalculateCourse(ctx, c.ID); err != nil {
		t.Fatalf("recalculate course: %v", err)
	}

	for _, u := range []string{"u1", "u2"} {
		rec, err := store.GetProgress(ctx, u, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Percentage != 50.0 {
			t.Errorf("%s pct = %v, want 50.0", u, rec.Percentage)
		}
	}
}

func TestConcurrentCompletionsAllReflected(t *testing.T) {
	store := lms.NewInMemoryStore()
	svc := progress.NewService(store)
	ctx := context.Background()

	const n = 10
	c := seedCourse(t, store, n, 0)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.MarkMaterialComplete(ctx, "u1", c.ID, fmt.Sprintf("mat-%d", i)); err != nil {
				t.Errorf("mark mat-%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	rec, err := store.GetProgress(ctx, "u1", c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.CompletedMaterials) != n {
		t.Errorf("completed = %d, want %d (lost update)", len(rec.CompletedMaterials), n)
	}
	if rec.Percentage != 100.0 {
		t.Errorf("pct = %v, want 100.0", rec.Percentage)
	}
}
