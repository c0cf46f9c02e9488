package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"challenge-response-service/internal/domain"
)

func TestChallengeStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(openTestDB(t))

	challenge := domain.Challenge{
		ID:    "challenge-1",
		Title: "Arithmetic",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionTypeMultipleChoice, Options: []domain.Option{{ID: "o1"}, {ID: "o2"}}, Correct: "o2"},
			{ID: "q2", Type: domain.QuestionTypeFreeText},
		},
		CreatedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.InsertChallenge(ctx, challenge); err != nil {
		t.Fatalf("insert: %v", err)
	}
	changed := challenge
	changed.Questions = changed.Questions[1:]
	if err := store.InsertChallenge(ctx, changed); !errors.Is(err, domain.ErrChallengeExists) {
		t.Fatalf("expected challenge exists, got %v", err)
	}
	got, err := store.LoadChallenge(ctx, "challenge-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Questions) != 2 || got.Questions[0].Correct != "o2" {
		t.Fatalf("unexpected challenge %+v", got)
	}
	if _, err := store.LoadChallenge(ctx, "missing"); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResponseStoreConditionalReplace(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore(openTestDB(t))

	now := time.Date(2024, 12, 1, 9, 30, 0, 0, time.UTC)
	r := domain.Response{
		ID:          "r1",
		UID:         "u1",
		ChallengeID: "challenge-1",
		Status:      domain.StatusInProgress,
		Responses:   map[string]domain.Answer{"q1": {Type: domain.QuestionTypeMultipleChoice}},
		Scoring: domain.ScoringDoc{
			Questions: map[string]domain.QuestionScore{"q1": {}},
			Status:    domain.ScoringPending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, r); err == nil {
		t.Fatalf("expected duplicate insert to fail")
	}

	r.Status = domain.StatusComplete
	r.Responses["q1"] = domain.Answer{Type: domain.QuestionTypeMultipleChoice, Choice: "o2"}
	r.Scoring.Questions["q1"] = domain.QuestionScore{Score: domain.Float(1)}
	r.UpdatedAt = now.Add(time.Minute)
	if err := store.Replace(ctx, r, domain.StatusInProgress); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := store.FindByID(ctx, "r1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != domain.StatusComplete || got.Responses["q1"].Choice != "o2" || *got.Scoring.Questions["q1"].Score != 1 {
		t.Fatalf("unexpected response %+v", got)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Minute)) || !got.CreatedAt.Equal(now) {
		t.Fatalf("timestamps not preserved: %v %v", got.CreatedAt, got.UpdatedAt)
	}

	if err := store.Replace(ctx, r, domain.StatusInProgress); !errors.Is(err, domain.ErrStatusConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	r.ID = "missing"
	if err := store.Replace(ctx, r, domain.StatusInProgress); !errors.Is(err, domain.ErrResponseNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
