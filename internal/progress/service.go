package progress

import (
	"context"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

// Service owns progress state transitions: completion marks and the derived
// percentage. The percentage is always recomputed from the full completed
// sets and fresh course item counts, never incrementally patched, so it
// stays correct when course content changes between completions.
type Service struct {
	store lms.Store
	locks *keyedLocks
}

func NewService(store lms.Store) *Service {
	return &Service{store: store, locks: newKeyedLocks()}
}

// Get returns the caller's progress record, creating a 0% one on first
// reference.
func (s *Service) Get(ctx context.Context, userID, courseID string) (lms.ProgressRecord, error) {
	return s.store.GetOrCreateProgress(ctx, userID, courseID)
}

// MarkMaterialComplete records the completion and recomputes the
// percentage. Re-marking an already-completed material is a no-op at the
// store (set semantics) and the recompute converges to the same value.
func (s *Service) MarkMaterialComplete(ctx context.Context, userID, courseID, materialID string) (float64, error) {
	unlock := s.locks.lock(userID + "|" + courseID)
	defer unlock()

	if err := s.store.MarkMaterialComplete(ctx, userID, courseID, materialID); err != nil {
		return 0, err
	}
	return s.recalculate(ctx, userID, courseID)
}

// MarkQuizComplete records a completed quiz submission and recomputes.
func (s *Service) MarkQuizComplete(ctx context.Context, userID, courseID, quizID string) (float64, error) {
	unlock := s.locks.lock(userID + "|" + courseID)
	defer unlock()

	if err := s.store.MarkQuizComplete(ctx, userID, courseID, quizID); err != nil {
		return 0, err
	}
	return s.recalculate(ctx, userID, courseID)
}

// Recalculate recomputes the percentage for one (user, course) pair, for
// callers reacting to course-content edits rather than completion events.
func (s *Service) Recalculate(ctx context.Context, userID, courseID string) (float64, error) {
	unlock := s.locks.lock(userID + "|" + courseID)
	defer unlock()
	return s.recalculate(ctx, userID, courseID)
}

// RecalculateCourse refreshes every enrolled student after materials or
// quizzes were added or removed.
func (s *Service) RecalculateCourse(ctx context.Context, courseID string) error {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	for _, studentID := range course.StudentIDs {
		if _, err := s.Recalculate(ctx, studentID, courseID); err != nil {
			return err
		}
	}
	return nil
}

// recalculate reads fresh course item counts and the current completed sets
// and writes back the derived percentage. A course with zero items leaves
// the record untouched to avoid dividing by zero on a fresh record.
func (s *Service) recalculate(ctx context.Context, userID, courseID string) (float64, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	rec, err := s.store.GetOrCreateProgress(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}

	total := course.TotalItems()
	if total == 0 {
		return rec.Percentage, nil
	}

	completed := len(rec.CompletedMaterials) + len(rec.CompletedQuizzes)
	pct := 100 * float64(completed) / float64(total)
	if pct > 100 {
		// more completions recorded than current items; course shrank
		pct = 100
	}
	if err := s.store.SetProgressPercentage(ctx, userID, courseID, pct); err != nil {
		return 0, err
	}
	return pct, nil
}
