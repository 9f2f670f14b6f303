package lms

import "context"

// ListOpts narrows list queries. Zero value means "no filter, default page".
type ListOpts struct {
	Limit  int
	Offset int
}

// SubmissionFilter selects submissions for analytics and attempt listings.
type SubmissionFilter struct {
	CourseID string
	QuizID   string
	UserID   string
	Status   string
}

// Store is the persistence collaborator. Backed by the document database in
// production and by an in-memory implementation in tests. Implementations
// must enforce uniqueness of (user_id, course_id) progress records and treat
// completed-set mutations as single atomic document updates.
type Store interface {
	// users
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, opts ListOpts) ([]User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error
	SetUserRole(ctx context.Context, id, role string) error
	TouchLastLogin(ctx context.Context, id string) error

	// courses
	CreateCourse(ctx context.Context, c *Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, opts ListOpts) ([]Course, error)
	UpdateCourse(ctx context.Context, c *Course) error
	DeleteCourse(ctx context.Context, id string) error
	EnrollStudent(ctx context.Context, courseID, userID string) error
	AttachMaterial(ctx context.Context, courseID, materialID string) error
	DetachMaterial(ctx context.Context, courseID, materialID string) error
	AttachQuiz(ctx context.Context, courseID, quizID string) error

	// materials
	CreateMaterial(ctx context.Context, m *Material) error
	GetMaterial(ctx context.Context, id string) (Material, error)
	ListMaterialsByCourse(ctx context.Context, courseID string) ([]Material, error)
	UpdateMaterial(ctx context.Context, m *Material) error
	DeleteMaterial(ctx context.Context, id string) error
	IncrementMaterialViews(ctx context.Context, id string) error
	LikeMaterial(ctx context.Context, id string) error

	// quizzes
	CreateQuiz(ctx context.Context, q *Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzesByCourse(ctx context.Context, courseID string) ([]Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error

	// submissions
	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, f SubmissionFilter) ([]Submission, error)

	// progress
	GetOrCreateProgress(ctx context.Context, userID, courseID string) (ProgressRecord, error)
	GetProgress(ctx context.Context, userID, courseID string) (ProgressRecord, error)
	MarkMaterialComplete(ctx context.Context, userID, courseID, materialID string) error
	MarkQuizComplete(ctx context.Context, userID, courseID, quizID string) error
	SetProgressPercentage(ctx context.Context, userID, courseID string, pct float64) error
	AddTimeSpent(ctx context.Context, userID, courseID string, seconds int64) error
	ListProgressByCourse(ctx context.Context, courseID string) ([]ProgressRecord, error)

	// chat
	InsertMessage(ctx context.Context, m *ChatMessage) error
	ListMessages(ctx context.Context, courseID string, opts ListOpts) ([]ChatMessage, error)
	PinMessage(ctx context.Context, courseID, messageID string) error

	// audit
	InsertAudit(ctx context.Context, e *AuditEntry) error
	ListAudit(ctx context.Context, opts ListOpts) ([]AuditEntry, error)

	// admin dashboard counts
	CountUsers(ctx context.Context) (int64, error)
	CountCourses(ctx context.Context) (int64, error)
	CountSubmissions(ctx context.Context) (int64, error)
}
