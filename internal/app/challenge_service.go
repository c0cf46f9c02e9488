package app

import (
	"context"
	"fmt"
	"time"

	"challenge-response-service/internal/domain"
	"github.com/google/uuid"
)

// ChallengeService creates and reads challenges.
type ChallengeService struct {
	challenges ChallengeRepository
	now        func() time.Time
}

func NewChallengeService(challenges ChallengeRepository) *ChallengeService {
	return &ChallengeService{challenges: challenges, now: time.Now}
}

// Create validates the attributes and stores a new challenge. An empty ID is minted.
func (s *ChallengeService) Create(ctx context.Context, attrs domain.Challenge) (domain.Challenge, error) {
	if err := validateChallenge(attrs); err != nil {
		return domain.Challenge{}, err
	}
	challenge := attrs
	if challenge.ID == "" {
		challenge.ID = uuid.NewString()
	}
	challenge.CreatedAt = s.now()
	if err := s.challenges.CreateChallenge(ctx, challenge); err != nil {
		return domain.Challenge{}, err
	}
	return challenge, nil
}

// Get returns a challenge by ID.
func (s *ChallengeService) Get(ctx context.Context, challengeID string) (domain.Challenge, error) {
	return s.challenges.GetChallenge(ctx, challengeID)
}

func validateChallenge(c domain.Challenge) error {
	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: no questions", domain.ErrInvalidChallenge)
	}
	seen := make(map[string]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question without id", domain.ErrInvalidChallenge)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question %s", domain.ErrInvalidChallenge, q.ID)
		}
		seen[q.ID] = struct{}{}
		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %s has unknown type %q", domain.ErrInvalidChallenge, q.ID, q.Type)
		}
		if q.Points < 0 {
			return fmt.Errorf("%w: question %s has negative points", domain.ErrInvalidChallenge, q.ID)
		}
		if q.Type == domain.QuestionTypeMultipleChoice && !hasOption(q, q.Correct) {
			return fmt.Errorf("%w: question %s needs a correct option", domain.ErrInvalidChallenge, q.ID)
		}
	}
	return nil
}

func hasOption(q domain.Question, optionID string) bool {
	if optionID == "" {
		return false
	}
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
