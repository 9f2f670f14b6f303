package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Open connects to the document database and ensures indexes exist.
// The returned client is owned by the caller: open at process start,
// Close at shutdown.
func Open(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	database := client.Database(dbName)
	if err := ensureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, database, nil
}

func Close(ctx context.Context, client *mongo.Client) error {
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "last_login", Value: 1}}},
		},
		"courses": {
			{Keys: bson.D{{Key: "instructor_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		"materials": {
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_by", Value: 1}}},
		},
		"quizzes": {
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_by", Value: 1}}},
		},
		// Uniqueness of one progress record per (user, course) lives here,
		// not in application code.
		"user_progress": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "course_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "last_accessed", Value: 1}}},
		},
		"quiz_submissions": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "quiz_id", Value: 1}}},
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
			{Keys: bson.D{{Key: "submitted_at", Value: 1}}},
		},
		"messages": {
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		"audit_log": {
			{Keys: bson.D{{Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "action_type", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
