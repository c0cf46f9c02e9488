package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"challenge-response-service/internal/domain"
	"github.com/google/uuid"
)

// ResponseService drives a response from begin to a scored, completed state.
type ResponseService struct {
	responses  ResponseRepository
	challenges ChallengeRepository
	scoring    ScoringEngine
	now        func() time.Time
	newID      func() string
}

// Option customises a ResponseService.
type Option func(*ResponseService)

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *ResponseService) { s.now = now }
}

// WithIDGenerator overrides how response IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *ResponseService) { s.newID = newID }
}

func NewResponseService(responses ResponseRepository, challenges ChallengeRepository, scoring ScoringEngine, opts ...Option) *ResponseService {
	s := &ResponseService{
		responses:  responses,
		challenges: challenges,
		scoring:    scoring,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin creates a new in-progress response of uid to the challenge. Every call
// creates a distinct response.
func (s *ResponseService) Begin(ctx context.Context, challengeID, uid string) (domain.Response, error) {
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return domain.Response{}, err
	}

	answers := make(map[string]domain.Answer, len(challenge.Questions))
	for _, q := range challenge.Questions {
		answers[q.ID] = domain.Answer{Type: q.Type}
	}

	now := s.now()
	response := domain.Response{
		ID:          s.newID(),
		UID:         uid,
		ChallengeID: challengeID,
		Status:      domain.StatusInProgress,
		Responses:   answers,
		Scoring:     s.scoring.CreateScoringDoc(challenge),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.responses.Insert(ctx, response); err != nil {
		return domain.Response{}, err
	}
	return response, nil
}

// SubmitResponses replaces the answers of the submitted questions. Questions not in
// the submission keep their previous answer.
func (s *ResponseService) SubmitResponses(ctx context.Context, responseID string, answers map[string]domain.Answer) (domain.Response, error) {
	if len(answers) == 0 {
		return domain.Response{}, domain.ErrNoResponses
	}

	response, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return domain.Response{}, err
	}
	if response.Status != domain.StatusInProgress {
		return domain.Response{}, domain.ErrResponseCompleted
	}
	if err := validateAnswers(response, answers); err != nil {
		return domain.Response{}, err
	}

	for questionID, answer := range answers {
		answer.Type = response.Responses[questionID].Type
		response.Responses[questionID] = answer
	}
	response.UpdatedAt = s.now()

	if err := s.responses.Replace(ctx, response, domain.StatusInProgress); err != nil {
		return domain.Response{}, err
	}
	return response, nil
}

// Finalize auto-grades the response and moves it to COMPLETE. It succeeds at most
// once per response and only for its owner.
func (s *ResponseService) Finalize(ctx context.Context, responseID, uid string) (domain.Response, error) {
	response, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return domain.Response{}, err
	}
	if response.Status != domain.StatusInProgress {
		return domain.Response{}, domain.ErrAlreadyFinalized
	}
	if response.UID != uid {
		return domain.Response{}, domain.ErrNotOwner
	}

	challenge, err := s.challenges.GetChallenge(ctx, response.ChallengeID)
	if errors.Is(err, domain.ErrChallengeNotFound) {
		return domain.Response{}, fmt.Errorf("%w: %s", domain.ErrChallengeMissing, response.ChallengeID)
	}
	if err != nil {
		return domain.Response{}, err
	}

	scoring := response.Scoring.Clone()
	if scoring.Questions == nil {
		scoring.Questions = make(map[string]domain.QuestionScore)
	}
	for questionID, score := range s.scoring.MultipleChoiceScores(challenge, response) {
		scoring.Questions[questionID] = score
	}
	s.scoring.AssignStatusAndOverallScore(&scoring)

	response.Status = domain.StatusComplete
	response.Scoring = scoring
	response.UpdatedAt = s.now()

	if err := s.responses.Replace(ctx, response, domain.StatusInProgress); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return domain.Response{}, domain.ErrAlreadyFinalized
		}
		return domain.Response{}, err
	}
	log.Printf("response %s finalized: scoring=%s overall=%g", response.ID, scoring.Status, scoring.OverallScore)
	return response, nil
}

// SubmitScores applies manual grades. Any answered question may be graded, whether
// or not it was auto-scored, at any response status.
func (s *ResponseService) SubmitScores(ctx context.Context, responseID string, submitted map[string]domain.ScoreSubmission) (domain.Response, error) {
	response, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return domain.Response{}, err
	}

	var invalid []string
	for questionID := range submitted {
		if _, ok := response.Responses[questionID]; !ok {
			invalid = append(invalid, questionID)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return domain.Response{}, &domain.InvalidQuestionsError{IDs: invalid}
	}

	scoring := response.Scoring.Clone()
	if scoring.Questions == nil {
		scoring.Questions = make(map[string]domain.QuestionScore)
	}
	for questionID, entry := range submitted {
		qs := scoring.Questions[questionID]
		if entry.Score != nil {
			qs.Score = domain.Float(*entry.Score)
		}
		if entry.Notes != "" {
			qs.Notes = entry.Notes
		}
		scoring.Questions[questionID] = qs
	}
	s.scoring.AssignStatusAndOverallScore(&scoring)

	response.Scoring = scoring
	response.UpdatedAt = s.now()

	if err := s.responses.Replace(ctx, response, response.Status); err != nil {
		return domain.Response{}, err
	}
	return response, nil
}

// FindOne returns the stored response.
func (s *ResponseService) FindOne(ctx context.Context, responseID string) (domain.Response, error) {
	return s.responses.FindByID(ctx, responseID)
}

// validateAnswers rejects question IDs outside the response and answers whose shape
// does not match the question type fixed at Begin.
func validateAnswers(response domain.Response, answers map[string]domain.Answer) error {
	var invalid []string
	for questionID := range answers {
		if _, ok := response.Responses[questionID]; !ok {
			invalid = append(invalid, questionID)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return &domain.InvalidQuestionsError{IDs: invalid}
	}

	for questionID, answer := range answers {
		expected := response.Responses[questionID].Type
		if answer.Type != "" && expected != "" && answer.Type != expected {
			return fmt.Errorf("%w: %s expects %s", domain.ErrInvalidAnswer, questionID, expected)
		}
		switch expected {
		case domain.QuestionTypeMultipleChoice:
			if answer.Text != "" {
				return fmt.Errorf("%w: %s takes a choice, not text", domain.ErrInvalidAnswer, questionID)
			}
		case domain.QuestionTypeFreeText:
			if answer.Choice != "" {
				return fmt.Errorf("%w: %s takes text, not a choice", domain.ErrInvalidAnswer, questionID)
			}
		}
	}
	return nil
}
