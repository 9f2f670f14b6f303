package lms

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore keeps everything in maps behind one mutex. Used by tests and
// as a fallback when no database is configured.
type memoryStore struct {
	mu          sync.RWMutex
	users       map[string]User
	courses     map[string]Course
	materials   map[string]Material
	quizzes     map[string]Quiz
	submissions map[string]Submission
	progress    map[string]ProgressRecord // key: userID|courseID
	messages    map[string]ChatMessage
	audit       []AuditEntry
}

func NewInMemoryStore() Store {
	return &memoryStore{
		users:       map[string]User{},
		courses:     map[string]Course{},
		materials:   map[string]Material{},
		quizzes:     map[string]Quiz{},
		submissions: map[string]Submission{},
		progress:    map[string]ProgressRecord{},
		messages:    map[string]ChatMessage{},
	}
}

func progressKey(userID, courseID string) string { return userID + "|" + courseID }

func newID() string { return uuid.NewString() }

// --- users ---

func (m *memoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = newID()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memoryStore) GetUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memoryStore) ListUsers(_ context.Context, opts ListOpts) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *memoryStore) UpdateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *memoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryStore) SetUserRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *memoryStore) TouchLastLogin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = time.Now().UTC()
	m.users[id] = u
	return nil
}

// --- courses ---

func (m *memoryStore) CreateCourse(_ context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	m.courses[c.ID] = *c
	return nil
}

func (m *memoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) ListCourses(_ context.Context, opts ListOpts) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *memoryStore) UpdateCourse(_ context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[c.ID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	m.courses[c.ID] = *c
	return nil
}

func (m *memoryStore) DeleteCourse(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *memoryStore) EnrollStudent(_ context.Context, courseID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return ErrNotFound
	}
	c.StudentIDs = addToSet(c.StudentIDs, userID)
	c.UpdatedAt = time.Now().UTC()
	m.courses[courseID] = c
	if u, ok := m.users[userID]; ok {
		u.EnrolledCourses = addToSet(u.EnrolledCourses, courseID)
		m.users[userID] = u
	}
	return nil
}

func (m *memoryStore) AttachMaterial(_ context.Context, courseID, materialID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return ErrNotFound
	}
	c.MaterialIDs = addToSet(c.MaterialIDs, materialID)
	c.UpdatedAt = time.Now().UTC()
	m.courses[courseID] = c
	return nil
}

func (m *memoryStore) DetachMaterial(_ context.Context, courseID, materialID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return ErrNotFound
	}
	c.MaterialIDs = removeFromSet(c.MaterialIDs, materialID)
	c.UpdatedAt = time.Now().UTC()
	m.courses[courseID] = c
	return nil
}

func (m *memoryStore) AttachQuiz(_ context.Context, courseID, quizID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return ErrNotFound
	}
	c.QuizIDs = addToSet(c.QuizIDs, quizID)
	c.UpdatedAt = time.Now().UTC()
	m.courses[courseID] = c
	return nil
}

// --- materials ---

func (m *memoryStore) CreateMaterial(_ context.Context, mat *Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mat.ID == "" {
		mat.ID = newID()
	}
	m.materials[mat.ID] = *mat
	return nil
}

func (m *memoryStore) GetMaterial(_ context.Context, id string) (Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mat, ok := m.materials[id]
	if !ok {
		return Material{}, ErrNotFound
	}
	return mat, nil
}

func (m *memoryStore) ListMaterialsByCourse(_ context.Context, courseID string) ([]Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Material{}
	for _, mat := range m.materials {
		if mat.CourseID == courseID {
			out = append(out, mat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) UpdateMaterial(_ context.Context, mat *Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.materials[mat.ID]; !ok {
		return ErrNotFound
	}
	mat.UpdatedAt = time.Now().UTC()
	m.materials[mat.ID] = *mat
	return nil
}

func (m *memoryStore) DeleteMaterial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.materials[id]; !ok {
		return ErrNotFound
	}
	delete(m.materials, id)
	return nil
}

func (m *memoryStore) IncrementMaterialViews(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return ErrNotFound
	}
	mat.Views++
	m.materials[id] = mat
	return nil
}

func (m *memoryStore) LikeMaterial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return ErrNotFound
	}
	mat.Likes++
	m.materials[id] = mat
	return nil
}

// --- quizzes ---

func (m *memoryStore) CreateQuiz(_ context.Context, q *Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = newID()
	}
	m.quizzes[q.ID] = *q
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzesByCourse(_ context.Context, courseID string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Quiz{}
	for _, q := range m.quizzes {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return ErrNotFound
	}
	delete(m.quizzes, id)
	return nil
}

// --- submissions ---

func (m *memoryStore) CreateSubmission(_ context.Context, s *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	m.submissions[s.ID] = *s
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, f SubmissionFilter) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Submission{}
	for _, s := range m.submissions {
		if f.CourseID != "" && s.CourseID != f.CourseID {
			continue
		}
		if f.QuizID != "" && s.QuizID != f.QuizID {
			continue
		}
		if f.UserID != "" && s.UserID != f.UserID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// --- progress ---

func (m *memoryStore) GetOrCreateProgress(_ context.Context, userID, courseID string) (ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(userID, courseID), nil
}

func (m *memoryStore) getOrCreateLocked(userID, courseID string) ProgressRecord {
	k := progressKey(userID, courseID)
	if p, ok := m.progress[k]; ok {
		return p
	}
	now := time.Now().UTC()
	p := ProgressRecord{
		ID:                 newID(),
		UserID:             userID,
		CourseID:           courseID,
		CompletedMaterials: []string{},
		CompletedQuizzes:   []string{},
		LastAccessed:       now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	m.progress[k] = p
	return p
}

func (m *memoryStore) GetProgress(_ context.Context, userID, courseID string) (ProgressRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey(userID, courseID)]
	if !ok {
		return ProgressRecord{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) MarkMaterialComplete(_ context.Context, userID, courseID, materialID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.getOrCreateLocked(userID, courseID)
	p.CompletedMaterials = addToSet(p.CompletedMaterials, materialID)
	p.CurrentMaterial = materialID
	now := time.Now().UTC()
	p.LastAccessed = now
	p.UpdatedAt = now
	m.progress[progressKey(userID, courseID)] = p
	return nil
}

func (m *memoryStore) MarkQuizComplete(_ context.Context, userID, courseID, quizID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.getOrCreateLocked(userID, courseID)
	p.CompletedQuizzes = addToSet(p.CompletedQuizzes, quizID)
	now := time.Now().UTC()
	p.LastAccessed = now
	p.UpdatedAt = now
	m.progress[progressKey(userID, courseID)] = p
	return nil
}

func (m *memoryStore) SetProgressPercentage(_ context.Context, userID, courseID string, pct float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := progressKey(userID, courseID)
	p, ok := m.progress[k]
	if !ok {
		return ErrNotFound
	}
	p.Percentage = pct
	p.UpdatedAt = time.Now().UTC()
	m.progress[k] = p
	return nil
}

func (m *memoryStore) AddTimeSpent(_ context.Context, userID, courseID string, seconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := progressKey(userID, courseID)
	p, ok := m.progress[k]
	if !ok {
		return ErrNotFound
	}
	p.TimeSpent += seconds
	p.LastAccessed = time.Now().UTC()
	m.progress[k] = p
	return nil
}

func (m *memoryStore) ListProgressByCourse(_ context.Context, courseID string) ([]ProgressRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []ProgressRecord{}
	for _, p := range m.progress {
		if p.CourseID == courseID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- chat ---

func (m *memoryStore) InsertMessage(_ context.Context, msg *ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = newID()
	}
	m.messages[msg.ID] = *msg
	return nil
}

func (m *memoryStore) ListMessages(_ context.Context, courseID string, opts ListOpts) ([]ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []ChatMessage{}
	for _, msg := range m.messages {
		if msg.CourseID == courseID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *memoryStore) PinMessage(_ context.Context, courseID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.CourseID != courseID {
		return ErrNotFound
	}
	msg.Pinned = true
	m.messages[messageID] = msg
	return nil
}

// --- audit ---

func (m *memoryStore) InsertAudit(_ context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	m.audit = append(m.audit, *e)
	return nil
}

func (m *memoryStore) ListAudit(_ context.Context, opts ListOpts) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditEntry, len(m.audit))
	copy(out, m.audit)
	return page(out, opts), nil
}

// --- counts ---

func (m *memoryStore) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *memoryStore) CountCourses(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.courses)), nil
}

func (m *memoryStore) CountSubmissions(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.submissions)), nil
}

// --- helpers ---

func addToSet(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}

func removeFromSet(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func page[T any](in []T, opts ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return []T{}
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
