package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Akram409/leafora-web-server/internal/models"
)

// MongoUserStore keeps user records in a MongoDB collection, one document per
// user with the gateway uid as _id.
type MongoUserStore struct {
	col *mongo.Collection
}

// NewMongoUserStore wraps the given database's "users" collection.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

func (s *MongoUserStore) Get(ctx context.Context, uid string) (*models.UserRecord, error) {
	var doc bson.M
	err := s.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", uid, err)
	}
	return models.UserRecordFromDocument(uid, doc), nil
}

func (s *MongoUserStore) List(ctx context.Context, filter ListFilter) ([]*models.UserRecord, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Plan != "" {
		query["plan"] = filter.Plan
	}

	cursor, err := s.col.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.UserRecord
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user document: %w", err)
		}
		uid, _ := doc["_id"].(string)
		records = append(records, models.UserRecordFromDocument(uid, doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return records, nil
}

func (s *MongoUserStore) Create(ctx context.Context, record *models.UserRecord) error {
	doc := record.ToDocument()
	doc["_id"] = record.UserID
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create user %s: %w", record.UserID, err)
	}
	return nil
}

func (s *MongoUserStore) Replace(ctx context.Context, record *models.UserRecord) error {
	result, err := s.col.ReplaceOne(ctx, bson.M{"_id": record.UserID}, record.ToDocument())
	if err != nil {
		return fmt.Errorf("replace user %s: %w", record.UserID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) Delete(ctx context.Context, uid string) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", uid, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
