package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
	"challenge-response-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestChallengeRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	store := &countingStore{
		ChallengeStore: memory.NewChallengeStore(map[string]domain.Challenge{
			"challenge-1": sampleChallenge(),
		}),
	}
	repo := NewChallengeRepository(client, store, time.Minute)

	got, err := repo.GetChallenge(context.Background(), "challenge-1")
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store called once, got %d", store.calls)
	}
	if !mr.Exists("challenge:challenge-1") {
		t.Fatalf("expected challenge cached in redis")
	}
	if ttl := mr.TTL("challenge:challenge-1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	// Second call should hit cache, store not incremented.
	again, _ := repo.GetChallenge(context.Background(), "challenge-1")
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if again.Questions[0].Correct != got.Questions[0].Correct {
		t.Fatalf("cached challenge lost grading data")
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetChallenge(context.Background(), "challenge-1")
	if store.calls != 2 {
		t.Fatalf("expected reload after expiry, store calls=%d", store.calls)
	}
}

func TestChallengeRepositoryCreateWritesThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := memory.NewChallengeStore(nil)
	repo := NewChallengeRepository(newClient(mr), backing, time.Minute)

	if err := repo.CreateChallenge(context.Background(), sampleChallenge()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := backing.LoadChallenge(context.Background(), "challenge-1"); err != nil {
		t.Fatalf("expected challenge in backing store: %v", err)
	}
	if !mr.Exists("challenge:challenge-1") {
		t.Fatalf("expected challenge cached in redis")
	}

	replacement := sampleChallenge()
	replacement.Questions[0].Correct = "o1"
	if err := repo.CreateChallenge(context.Background(), replacement); !errors.Is(err, domain.ErrChallengeExists) {
		t.Fatalf("expected challenge exists, got %v", err)
	}
	cached, err := repo.GetChallenge(context.Background(), "challenge-1")
	if err != nil || cached.Questions[0].Correct != "o2" {
		t.Fatalf("cached challenge was overwritten: %+v err=%v", cached, err)
	}
}

type countingStore struct {
	app.ChallengeStore
	calls int
}

func (s *countingStore) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	s.calls++
	return s.ChallengeStore.LoadChallenge(ctx, challengeID)
}

func sampleChallenge() domain.Challenge {
	return domain.Challenge{
		ID:    "challenge-1",
		Title: "Arithmetic",
		Questions: []domain.Question{
			{
				ID:      "q1",
				Type:    domain.QuestionTypeMultipleChoice,
				Prompt:  "What is 2 + 2?",
				Options: []domain.Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "4"}},
				Correct: "o2",
				Points:  1,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
