package mongo

import (
	"context"
	"errors"
	"fmt"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResponseStore keeps response documents in the responses collection.
type ResponseStore struct {
	collection *mongo.Collection
}

func NewResponseStore(db *mongo.Database) *ResponseStore {
	return &ResponseStore{collection: db.Collection("responses")}
}

// EnsureIndexes creates the lookup indexes used by graders.
func (s *ResponseStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetName("uid")},
		{Keys: bson.D{{Key: "challengeId", Value: 1}}, Options: options.Index().SetName("challengeId")},
	})
	if err != nil {
		return fmt.Errorf("create response indexes: %w", err)
	}
	return nil
}

func (s *ResponseStore) Insert(ctx context.Context, r domain.Response) error {
	if _, err := s.collection.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("response %s already exists", r.ID)
		}
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (s *ResponseStore) FindByID(ctx context.Context, responseID string) (domain.Response, error) {
	var r domain.Response
	err := s.collection.FindOne(ctx, bson.M{"_id": responseID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, fmt.Errorf("load response: %w", err)
	}
	return r, nil
}

// Replace swaps the whole document, filtered on the expected status so a
// concurrent transition makes the write miss.
func (s *ResponseStore) Replace(ctx context.Context, r domain.Response, expected domain.ResponseStatus) error {
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": r.ID, "status": expected}, r)
	if err != nil {
		return fmt.Errorf("replace response: %w", err)
	}
	if res.MatchedCount == 0 {
		return app.ReplaceMissed(ctx, s, r.ID)
	}
	return nil
}
