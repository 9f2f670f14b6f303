package progress

import (
	"context"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
)

type QuizStatistics struct {
	AverageScore   float64 `json:"average_score"`
	HighestScore   float64 `json:"highest_score"`
	LowestScore    float64 `json:"lowest_score"`
	CompletionRate float64 `json:"completion_rate"`
}

type CourseAnalytics struct {
	TotalStudents     int            `json:"total_students"`
	CompletedStudents int            `json:"completed_students"`
	AverageProgress   float64        `json:"average_progress"`
	QuizStatistics    QuizStatistics `json:"quiz_statistics"`
}

// Analytics aggregates progress records and quiz submissions for a course.
// Reads only, no writes.
func (s *Service) Analytics(ctx context.Context, courseID string) (CourseAnalytics, error) {
	records, err := s.store.ListProgressByCourse(ctx, courseID)
	if err != nil {
		return CourseAnalytics{}, err
	}
	submissions, err := s.store.ListSubmissions(ctx, lms.SubmissionFilter{CourseID: courseID})
	if err != nil {
		return CourseAnalytics{}, err
	}

	out := CourseAnalytics{TotalStudents: len(records)}
	var sum float64
	for _, r := range records {
		sum += r.Percentage
		if r.Percentage == 100 {
			out.CompletedStudents++
		}
	}
	if len(records) > 0 {
		out.AverageProgress = sum / float64(len(records))
	}
	out.QuizStatistics = quizStatistics(submissions)
	return out, nil
}

// quizStatistics summarizes submissions as score percentages so quizzes of
// different sizes are comparable.
func quizStatistics(submissions []lms.Submission) QuizStatistics {
	var stats QuizStatistics
	if len(submissions) == 0 {
		return stats
	}

	var completed int
	var sum float64
	first := true
	for _, s := range submissions {
		if s.Status != lms.SubmissionCompleted {
			continue
		}
		completed++
		pct := 0.0
		if s.MaxScore > 0 {
			pct = 100 * s.TotalScore / s.MaxScore
		}
		sum += pct
		if first || pct > stats.HighestScore {
			stats.HighestScore = pct
		}
		if first || pct < stats.LowestScore {
			stats.LowestScore = pct
		}
		first = false
	}
	if completed > 0 {
		stats.AverageScore = sum / float64(completed)
	}
	stats.CompletionRate = 100 * float64(completed) / float64(len(submissions))
	return stats
}
