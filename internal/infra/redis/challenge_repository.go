package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ChallengeRepository caches challenges in Redis and falls back to the store on a miss.
// Challenges are stored as JSON under challenge:{challengeID}.
type ChallengeRepository struct {
	client *redis.Client
	store  app.ChallengeStore
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewChallengeRepository(client *redis.Client, store app.ChallengeStore, ttl time.Duration) *ChallengeRepository {
	return &ChallengeRepository{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ChallengeRepository) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if c, ok := r.cached(ctx, challengeID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(challengeID, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if c, ok := r.cached(ctx, challengeID); ok {
			return c, nil
		}
		challenge, err := r.store.LoadChallenge(ctx, challengeID)
		if err != nil {
			return domain.Challenge{}, err
		}
		r.fill(ctx, challenge)
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// CreateChallenge writes through to the store, then primes the cache.
func (r *ChallengeRepository) CreateChallenge(ctx context.Context, challenge domain.Challenge) error {
	if err := r.store.InsertChallenge(ctx, challenge); err != nil {
		return err
	}
	r.fill(ctx, challenge)
	return nil
}

func (r *ChallengeRepository) cached(ctx context.Context, challengeID string) (domain.Challenge, bool) {
	raw, err := r.client.Get(ctx, r.key(challengeID)).Bytes()
	if err != nil {
		return domain.Challenge{}, false
	}
	var c domain.Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Challenge{}, false
	}
	return c, true
}

// fill is best effort; a failed cache write only costs a reload.
func (r *ChallengeRepository) fill(ctx context.Context, challenge domain.Challenge) {
	data, err := json.Marshal(challenge)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, r.key(challenge.ID), data, r.ttlWithJitter()).Err()
}

func (r *ChallengeRepository) key(challengeID string) string {
	return "challenge:" + challengeID
}

func (r *ChallengeRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
