package app

import (
	"context"

	"challenge-response-service/internal/domain"
)

// ChallengeStore is the source of truth for challenges (SQL, document DB, memory).
type ChallengeStore interface {
	LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
	// InsertChallenge never overwrites; an existing ID yields domain.ErrChallengeExists.
	InsertChallenge(ctx context.Context, challenge domain.Challenge) error
}

// ChallengeRepository serves challenges to the use cases, typically through a cache.
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
	CreateChallenge(ctx context.Context, challenge domain.Challenge) error
}

// ResponseRepository persists response documents.
//
// Replace writes r only while the stored status still equals expected and returns
// domain.ErrStatusConflict otherwise.
type ResponseRepository interface {
	Insert(ctx context.Context, r domain.Response) error
	FindByID(ctx context.Context, responseID string) (domain.Response, error)
	Replace(ctx context.Context, r domain.Response, expected domain.ResponseStatus) error
}

// ResponseFinder is the read half of ResponseRepository.
type ResponseFinder interface {
	FindByID(ctx context.Context, responseID string) (domain.Response, error)
}

// ReplaceMissed explains a conditional replace that matched nothing: the response is
// gone (domain.ErrResponseNotFound) or its status moved on (domain.ErrStatusConflict).
func ReplaceMissed(ctx context.Context, finder ResponseFinder, responseID string) error {
	if _, err := finder.FindByID(ctx, responseID); err != nil {
		return err
	}
	return domain.ErrStatusConflict
}

// ScoringEngine builds and grades scoring documents.
type ScoringEngine interface {
	CreateScoringDoc(challenge domain.Challenge) domain.ScoringDoc
	MultipleChoiceScores(challenge domain.Challenge, response domain.Response) map[string]domain.QuestionScore
	AssignStatusAndOverallScore(doc *domain.ScoringDoc)
}
