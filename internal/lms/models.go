package lms

import "time"

// Roles resolved by the auth layer. The rest of the code trusts these.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Question types.
const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionShortAnswer    = "short-answer"
	QuestionLongAnswer     = "long-answer"
)

// Submission lifecycle. in_progress is the only mutable state; completed and
// abandoned are terminal.
const (
	SubmissionInProgress = "in_progress"
	SubmissionCompleted  = "completed"
	SubmissionAbandoned  = "abandoned"
)

type User struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Email           string    `bson:"email" json:"email"`
	Name            string    `bson:"name" json:"name"`
	Role            string    `bson:"role" json:"role"`
	PasswordHash    string    `bson:"password_hash" json:"-"`
	Active          bool      `bson:"is_active" json:"is_active"`
	EnrolledCourses []string  `bson:"enrolled_courses" json:"enrolled_courses"`
	LastLogin       time.Time `bson:"last_login" json:"last_login"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

type Course struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	InstructorID string    `bson:"instructor_id" json:"instructor_id"`
	Objectives   []string  `bson:"objectives" json:"objectives"`
	MaterialIDs  []string  `bson:"material_ids" json:"material_ids"`
	QuizIDs      []string  `bson:"quiz_ids" json:"quiz_ids"`
	StudentIDs   []string  `bson:"student_ids" json:"student_ids"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// TotalItems is the denominator for progress percentages.
func (c Course) TotalItems() int { return len(c.MaterialIDs) + len(c.QuizIDs) }

func (c Course) HasStudent(userID string) bool {
	for _, id := range c.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Material struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	CourseID      string    `bson:"course_id" json:"course_id"`
	Title         string    `bson:"title" json:"title"`
	Description   string    `bson:"description" json:"description"`
	Type          string    `bson:"type" json:"type"` // document|video|link|assignment
	ContentURL    string    `bson:"content_url" json:"content_url"`
	Tags          []string  `bson:"tags" json:"tags"`
	Difficulty    string    `bson:"difficulty_level" json:"difficulty_level"`
	EstimatedMins int       `bson:"estimated_time" json:"estimated_time"`
	Views         int64     `bson:"views" json:"views"`
	Likes         int64     `bson:"likes" json:"likes"`
	Published     bool      `bson:"is_published" json:"is_published"`
	CreatedBy     string    `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

type Question struct {
	ID            string   `bson:"id" json:"id"`
	Text          string   `bson:"text" json:"text"`
	Type          string   `bson:"type" json:"type"`
	Options       []string `bson:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer string   `bson:"correct_answer,omitempty" json:"correct_answer,omitempty"`
	Points        int      `bson:"points" json:"points"`
}

type Quiz struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	CourseID    string     `bson:"course_id" json:"course_id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Questions   []Question `bson:"questions" json:"questions"`
	TotalPoints int        `bson:"total_points" json:"total_points"`
	CreatedBy   string     `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// StripAnswerKeys returns a copy safe to show students.
func (q Quiz) StripAnswerKeys() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qu := range q.Questions {
		qu.CorrectAnswer = ""
		out.Questions[i] = qu
	}
	return out
}

type Answer struct {
	QuestionID   string  `bson:"question_id" json:"question_id"`
	Value        string  `bson:"value" json:"value"`
	IsCorrect    bool    `bson:"is_correct" json:"is_correct"`
	PointsEarned float64 `bson:"points_earned" json:"points_earned"`
}

type Submission struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	QuizID         string    `bson:"quiz_id" json:"quiz_id"`
	CourseID       string    `bson:"course_id" json:"course_id"`
	Answers        []Answer  `bson:"answers" json:"answers"`
	TotalScore     float64   `bson:"total_score" json:"total_score"`
	MaxScore       float64   `bson:"max_score" json:"max_score"`
	TimeTaken      int       `bson:"time_taken" json:"time_taken"` // seconds
	Status         string    `bson:"status" json:"status"`
	Feedback       string    `bson:"feedback" json:"feedback"`
	PartialFailure bool      `bson:"partial_failure" json:"partial_failure"`
	SubmittedAt    time.Time `bson:"submitted_at" json:"submitted_at"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

type ProgressRecord struct {
	ID                 string    `bson:"_id,omitempty" json:"id"`
	UserID             string    `bson:"user_id" json:"user_id"`
	CourseID           string    `bson:"course_id" json:"course_id"`
	CompletedMaterials []string  `bson:"completed_materials" json:"completed_materials"`
	CompletedQuizzes   []string  `bson:"completed_quizzes" json:"completed_quizzes"`
	CurrentMaterial    string    `bson:"current_material,omitempty" json:"current_material,omitempty"`
	Percentage         float64   `bson:"progress_percentage" json:"progress_percentage"`
	LastAccessed       time.Time `bson:"last_accessed" json:"last_accessed"`
	TimeSpent          int64     `bson:"time_spent" json:"time_spent"` // seconds
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

type ChatMessage struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	CourseID   string    `bson:"course_id" json:"course_id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	SenderName string    `bson:"sender_name" json:"sender_name"`
	Text       string    `bson:"text" json:"text"`
	ReplyTo    string    `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	Pinned     bool      `bson:"pinned" json:"pinned"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

type AuditEntry struct {
	ID         string         `bson:"_id,omitempty" json:"id"`
	UserID     string         `bson:"user_id" json:"user_id"`
	ActionType string         `bson:"action_type" json:"action_type"`
	ResourceID string         `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Details    map[string]any `bson:"details" json:"details"`
	Timestamp  time.Time      `bson:"timestamp" json:"timestamp"`
}
