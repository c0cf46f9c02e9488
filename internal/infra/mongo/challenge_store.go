package mongo

import (
	"context"
	"errors"
	"fmt"

	"challenge-response-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ChallengeStore keeps challenges in the challenges collection, keyed by their ID.
type ChallengeStore struct {
	collection *mongo.Collection
}

func NewChallengeStore(db *mongo.Database) *ChallengeStore {
	return &ChallengeStore{collection: db.Collection("challenges")}
}

func (s *ChallengeStore) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	var challenge domain.Challenge
	err := s.collection.FindOne(ctx, bson.M{"_id": challengeID}).Decode(&challenge)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	return challenge, nil
}

func (s *ChallengeStore) InsertChallenge(ctx context.Context, challenge domain.Challenge) error {
	if _, err := s.collection.InsertOne(ctx, challenge); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrChallengeExists
		}
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}
