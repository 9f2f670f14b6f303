package lms_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	u1 := lms.User{Email: "a@example.com", Name: "A"}
	if err := store.CreateUser(ctx, &u1); err != nil {
		t.Fatalf("first create: %v", err)
	}
	u2 := lms.User{Email: "a@example.com", Name: "B"}
	if err := store.CreateUser(ctx, &u2); !errors.Is(err, lms.ErrConflict) {
		t.Fatalf("duplicate email err = %v, want ErrConflict", err)
	}
}

func TestGetOrCreateProgressSingleRecordPerPair(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	first, err := store.GetOrCreateProgress(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Percentage != 0 || len(first.CompletedMaterials) != 0 {
		t.Errorf("fresh record not zeroed: %+v", first)
	}

	second, err := store.GetOrCreateProgress(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second call created a new record: %s vs %s", second.ID, first.ID)
	}

	other, err := store.GetOrCreateProgress(ctx, "u1", "c2")
	if err != nil {
		t.Fatalf("other course: %v", err)
	}
	if other.ID == first.ID {
		t.Error("distinct courses share a progress record")
	}
}

func TestMarkCompleteSetSemantics(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.MarkMaterialComplete(ctx, "u1", "c1", "m1"); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkQuizComplete(ctx, "u1", "c1", "q1"); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := store.GetProgress(ctx, "u1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.CompletedMaterials) != 1 || len(rec.CompletedQuizzes) != 1 {
		t.Errorf("set semantics violated: materials=%v quizzes=%v",
			rec.CompletedMaterials, rec.CompletedQuizzes)
	}
	if rec.CurrentMaterial != "m1" {
		t.Errorf("current material = %q, want m1", rec.CurrentMaterial)
	}
}

func TestEnrollStudentUpdatesBothSides(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	u := lms.User{Email: "s@example.com", Name: "S"}
	if err := store.CreateUser(ctx, &u); err != nil {
		t.Fatal(err)
	}
	c := lms.Course{Title: "Go"}
	if err := store.CreateCourse(ctx, &c); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ { // second enroll is a no-op
		if err := store.EnrollStudent(ctx, c.ID, u.ID); err != nil {
			t.Fatalf("enroll #%d: %v", i, err)
		}
	}

	gotC, _ := store.GetCourse(ctx, c.ID)
	if len(gotC.StudentIDs) != 1 || gotC.StudentIDs[0] != u.ID {
		t.Errorf("roster = %v, want [%s]", gotC.StudentIDs, u.ID)
	}
	gotU, _ := store.GetUser(ctx, u.ID)
	if len(gotU.EnrolledCourses) != 1 || gotU.EnrolledCourses[0] != c.ID {
		t.Errorf("enrolled = %v, want [%s]", gotU.EnrolledCourses, c.ID)
	}
}

func TestListSubmissionsFilter(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	seed := []lms.Submission{
		{UserID: "u1", QuizID: "q1", CourseID: "c1", Status: lms.SubmissionCompleted},
		{UserID: "u1", QuizID: "q2", CourseID: "c1", Status: lms.SubmissionInProgress},
		{UserID: "u2", QuizID: "q1", CourseID: "c2", Status: lms.SubmissionCompleted},
	}
	for i := range seed {
		if err := store.CreateSubmission(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListSubmissions(ctx, lms.SubmissionFilter{CourseID: "c1", Status: lms.SubmissionCompleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].QuizID != "q1" {
		t.Errorf("filtered = %+v, want one c1/completed submission", got)
	}

	got, err = store.ListSubmissions(ctx, lms.SubmissionFilter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("u1 submissions = %d, want 2", len(got))
	}
}

func TestDetachMaterialShrinksCourse(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	c := lms.Course{Title: "Go"}
	if err := store.CreateCourse(ctx, &c); err != nil {
		t.Fatal(err)
	}
	if err := store.AttachMaterial(ctx, c.ID, "m1"); err != nil {
		t.Fatal(err)
	}
	if err := store.AttachMaterial(ctx, c.ID, "m2"); err != nil {
		t.Fatal(err)
	}
	if err := store.DetachMaterial(ctx, c.ID, "m1"); err != nil {
		t.Fatal(err)
	}

	got, _ := store.GetCourse(ctx, c.ID)
	if got.TotalItems() != 1 {
		t.Errorf("total items = %d, want 1", got.TotalItems())
	}
}

func TestPinMessageWrongCourse(t *testing.T) {
	store := lms.NewInMemoryStore()
	ctx := context.Background()

	msg := lms.ChatMessage{CourseID: "c1", SenderID: "u1", Text: "hi"}
	if err := store.InsertMessage(ctx, &msg); err != nil {
		t.Fatal(err)
	}
	if err := store.PinMessage(ctx, "c2", msg.ID); !errors.Is(err, lms.ErrNotFound) {
		t.Fatalf("cross-course pin err = %v, want ErrNotFound", err)
	}
	if err := store.PinMessage(ctx, "c1", msg.ID); err != nil {
		t.Fatalf("pin: %v", err)
	}

	msgs, _ := store.ListMessages(ctx, "c1", lms.ListOpts{})
	if len(msgs) != 1 || !msgs[0].Pinned {
		t.Errorf("message not pinned: %+v", msgs)
	}
}
