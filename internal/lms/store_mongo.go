package lms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names. Shared with the index bootstrap in internal/db.
const (
	ColUsers       = "users"
	ColCourses     = "courses"
	ColMaterials   = "materials"
	ColQuizzes     = "quizzes"
	ColSubmissions = "quiz_submissions"
	ColProgress    = "user_progress"
	ColMessages    = "messages"
	ColAudit       = "audit_log"
)

type mongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps an open database handle. Lifecycle of the client is
// owned by the caller (opened at process start, closed at shutdown).
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{db: db}
}

func (s *mongoStore) col(name string) *mongo.Collection { return s.db.Collection(name) }

func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrConflict
	default:
		return err
	}
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M) (T, error) {
	var out T
	err := c.FindOne(ctx, filter).Decode(&out)
	return out, mapMongoErr(err)
}

func findMany[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOpts(o ListOpts) *options.FindOptions {
	fo := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if o.Limit > 0 {
		fo.SetLimit(int64(o.Limit))
	}
	if o.Offset > 0 {
		fo.SetSkip(int64(o.Offset))
	}
	return fo
}

func requireMatch(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- users ---

func (s *mongoStore) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.col(ColUsers).InsertOne(ctx, u)
	return mapMongoErr(err)
}

func (s *mongoStore) GetUser(ctx context.Context, id string) (User, error) {
	return findOne[User](ctx, s.col(ColUsers), bson.M{"_id": id})
}

func (s *mongoStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return findOne[User](ctx, s.col(ColUsers), bson.M{"email": email})
}

func (s *mongoStore) ListUsers(ctx context.Context, opts ListOpts) ([]User, error) {
	return findMany[User](ctx, s.col(ColUsers), bson.M{}, findOpts(opts))
}

func (s *mongoStore) UpdateUser(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.col(ColUsers).ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.col(ColUsers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) SetUserRole(ctx context.Context, id, role string) error {
	return requireMatch(s.col(ColUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"role": role, "updated_at": time.Now().UTC()},
	}))
}

func (s *mongoStore) TouchLastLogin(ctx context.Context, id string) error {
	return requireMatch(s.col(ColUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login": time.Now().UTC()},
	}))
}

// --- courses ---

func (s *mongoStore) CreateCourse(ctx context.Context, c *Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.col(ColCourses).InsertOne(ctx, c)
	return mapMongoErr(err)
}

func (s *mongoStore) GetCourse(ctx context.Context, id string) (Course, error) {
	return findOne[Course](ctx, s.col(ColCourses), bson.M{"_id": id})
}

func (s *mongoStore) ListCourses(ctx context.Context, opts ListOpts) ([]Course, error) {
	return findMany[Course](ctx, s.col(ColCourses), bson.M{}, findOpts(opts))
}

func (s *mongoStore) UpdateCourse(ctx context.Context, c *Course) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.col(ColCourses).ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.col(ColCourses).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) EnrollStudent(ctx context.Context, courseID, userID string) error {
	err := requireMatch(s.col(ColCourses).UpdateOne(ctx, bson.M{"_id": courseID}, bson.M{
		"$addToSet": bson.M{"student_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}))
	if err != nil {
		return err
	}
	return requireMatch(s.col(ColUsers).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"enrolled_courses": courseID},
	}))
}

func (s *mongoStore) AttachMaterial(ctx context.Context, courseID, materialID string) error {
	return requireMatch(s.col(ColCourses).UpdateOne(ctx, bson.M{"_id": courseID}, bson.M{
		"$addToSet": bson.M{"material_ids": materialID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}))
}

func (s *mongoStore) DetachMaterial(ctx context.Context, courseID, materialID string) error {
	return requireMatch(s.col(ColCourses).UpdateOne(ctx, bson.M{"_id": courseID}, bson.M{
		"$pull": bson.M{"material_ids": materialID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}))
}

func (s *mongoStore) AttachQuiz(ctx context.Context, courseID, quizID string) error {
	return requireMatch(s.col(ColCourses).UpdateOne(ctx, bson.M{"_id": courseID}, bson.M{
		"$addToSet": bson.M{"quiz_ids": quizID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}))
}

// --- materials ---

func (s *mongoStore) CreateMaterial(ctx context.Context, m *Material) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.col(ColMaterials).InsertOne(ctx, m)
	return mapMongoErr(err)
}

func (s *mongoStore) GetMaterial(ctx context.Context, id string) (Material, error) {
	return findOne[Material](ctx, s.col(ColMaterials), bson.M{"_id": id})
}

func (s *mongoStore) ListMaterialsByCourse(ctx context.Context, courseID string) ([]Material, error) {
	return findMany[Material](ctx, s.col(ColMaterials), bson.M{"course_id": courseID}, findOpts(ListOpts{}))
}

func (s *mongoStore) UpdateMaterial(ctx context.Context, m *Material) error {
	m.UpdatedAt = time.Now().UTC()
	res, err := s.col(ColMaterials).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) DeleteMaterial(ctx context.Context, id string) error {
	res, err := s.col(ColMaterials).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) IncrementMaterialViews(ctx context.Context, id string) error {
	return requireMatch(s.col(ColMaterials).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"views": 1},
	}))
}

func (s *mongoStore) LikeMaterial(ctx context.Context, id string) error {
	return requireMatch(s.col(ColMaterials).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"likes": 1},
	}))
}

// --- quizzes ---

func (s *mongoStore) CreateQuiz(ctx context.Context, q *Quiz) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := s.col(ColQuizzes).InsertOne(ctx, q)
	return mapMongoErr(err)
}

func (s *mongoStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return findOne[Quiz](ctx, s.col(ColQuizzes), bson.M{"_id": id})
}

func (s *mongoStore) ListQuizzesByCourse(ctx context.Context, courseID string) ([]Quiz, error) {
	return findMany[Quiz](ctx, s.col(ColQuizzes), bson.M{"course_id": courseID}, findOpts(ListOpts{}))
}

func (s *mongoStore) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.col(ColQuizzes).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- submissions ---

func (s *mongoStore) CreateSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := s.col(ColSubmissions).InsertOne(ctx, sub)
	return mapMongoErr(err)
}

func (s *mongoStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return findOne[Submission](ctx, s.col(ColSubmissions), bson.M{"_id": id})
}

func (s *mongoStore) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]Submission, error) {
	filter := bson.M{}
	if f.CourseID != "" {
		filter["course_id"] = f.CourseID
	}
	if f.QuizID != "" {
		filter["quiz_id"] = f.QuizID
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return findMany[Submission](ctx, s.col(ColSubmissions), filter,
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}))
}

// --- progress ---

// GetOrCreateProgress relies on the unique (user_id, course_id) index: the
// upsert either inserts a fresh 0% record or leaves the existing one alone.
func (s *mongoStore) GetOrCreateProgress(ctx context.Context, userID, courseID string) (ProgressRecord, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID, "course_id": courseID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                 uuid.NewString(),
			"user_id":             userID,
			"course_id":           courseID,
			"completed_materials": []string{},
			"completed_quizzes":   []string{},
			"progress_percentage": 0.0,
			"time_spent":          int64(0),
			"created_at":          now,
		},
		"$set": bson.M{"last_accessed": now, "updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var p ProgressRecord
	if err := s.col(ColProgress).FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		return ProgressRecord{}, mapMongoErr(err)
	}
	return p, nil
}

func (s *mongoStore) GetProgress(ctx context.Context, userID, courseID string) (ProgressRecord, error) {
	return findOne[ProgressRecord](ctx, s.col(ColProgress), bson.M{"user_id": userID, "course_id": courseID})
}

// MarkMaterialComplete is one atomic document update: the $addToSet cannot
// lose a concurrent completion of a different material.
func (s *mongoStore) MarkMaterialComplete(ctx context.Context, userID, courseID, materialID string) error {
	now := time.Now().UTC()
	_, err := s.col(ColProgress).UpdateOne(ctx,
		bson.M{"user_id": userID, "course_id": courseID},
		bson.M{
			"$addToSet": bson.M{"completed_materials": materialID},
			"$set": bson.M{
				"current_material": materialID,
				"last_accessed":    now,
				"updated_at":       now,
			},
			"$setOnInsert": bson.M{
				"_id":                 uuid.NewString(),
				"completed_quizzes":   []string{},
				"progress_percentage": 0.0,
				"time_spent":          int64(0),
				"created_at":          now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return mapMongoErr(err)
}

func (s *mongoStore) MarkQuizComplete(ctx context.Context, userID, courseID, quizID string) error {
	now := time.Now().UTC()
	_, err := s.col(ColProgress).UpdateOne(ctx,
		bson.M{"user_id": userID, "course_id": courseID},
		bson.M{
			"$addToSet": bson.M{"completed_quizzes": quizID},
			"$set":      bson.M{"last_accessed": now, "updated_at": now},
			"$setOnInsert": bson.M{
				"_id":                 uuid.NewString(),
				"completed_materials": []string{},
				"progress_percentage": 0.0,
				"time_spent":          int64(0),
				"created_at":          now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return mapMongoErr(err)
}

func (s *mongoStore) SetProgressPercentage(ctx context.Context, userID, courseID string, pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: percentage %v out of range", ErrValidation, pct)
	}
	return requireMatch(s.col(ColProgress).UpdateOne(ctx,
		bson.M{"user_id": userID, "course_id": courseID},
		bson.M{"$set": bson.M{"progress_percentage": pct, "updated_at": time.Now().UTC()}},
	))
}

func (s *mongoStore) AddTimeSpent(ctx context.Context, userID, courseID string, seconds int64) error {
	return requireMatch(s.col(ColProgress).UpdateOne(ctx,
		bson.M{"user_id": userID, "course_id": courseID},
		bson.M{
			"$inc": bson.M{"time_spent": seconds},
			"$set": bson.M{"last_accessed": time.Now().UTC()},
		},
	))
}

func (s *mongoStore) ListProgressByCourse(ctx context.Context, courseID string) ([]ProgressRecord, error) {
	return findMany[ProgressRecord](ctx, s.col(ColProgress), bson.M{"course_id": courseID})
}

// --- chat ---

func (s *mongoStore) InsertMessage(ctx context.Context, m *ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.col(ColMessages).InsertOne(ctx, m)
	return mapMongoErr(err)
}

func (s *mongoStore) ListMessages(ctx context.Context, courseID string, opts ListOpts) ([]ChatMessage, error) {
	return findMany[ChatMessage](ctx, s.col(ColMessages), bson.M{"course_id": courseID}, findOpts(opts))
}

func (s *mongoStore) PinMessage(ctx context.Context, courseID, messageID string) error {
	return requireMatch(s.col(ColMessages).UpdateOne(ctx,
		bson.M{"_id": messageID, "course_id": courseID},
		bson.M{"$set": bson.M{"pinned": true}},
	))
}

// --- audit ---

func (s *mongoStore) InsertAudit(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.col(ColAudit).InsertOne(ctx, e)
	return mapMongoErr(err)
}

func (s *mongoStore) ListAudit(ctx context.Context, opts ListOpts) ([]AuditEntry, error) {
	fo := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		fo.SetSkip(int64(opts.Offset))
	}
	return findMany[AuditEntry](ctx, s.col(ColAudit), bson.M{}, fo)
}

// --- counts ---

func (s *mongoStore) CountUsers(ctx context.Context) (int64, error) {
	return s.col(ColUsers).CountDocuments(ctx, bson.M{})
}

func (s *mongoStore) CountCourses(ctx context.Context) (int64, error) {
	return s.col(ColCourses).CountDocuments(ctx, bson.M{})
}

func (s *mongoStore) CountSubmissions(ctx context.Context) (int64, error) {
	return s.col(ColSubmissions).CountDocuments(ctx, bson.M{})
}
