package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ChallengeRepository caches challenges with TTL to avoid repeated store hits.
type ChallengeRepository struct {
	store app.ChallengeStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedChallenge
}

type cachedChallenge struct {
	challenge domain.Challenge
	expiresAt time.Time
}

func NewChallengeRepository(store app.ChallengeStore, ttl time.Duration) *ChallengeRepository {
	return &ChallengeRepository{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedChallenge),
	}
}

func (r *ChallengeRepository) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if c, ok := r.lookup(challengeID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(challengeID, func() (interface{}, error) {
		if c, ok := r.lookup(challengeID); ok {
			return c, nil
		}
		challenge, err := r.store.LoadChallenge(ctx, challengeID)
		if err != nil {
			return domain.Challenge{}, err
		}
		r.put(challenge)
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// CreateChallenge writes through to the store and primes the cache.
func (r *ChallengeRepository) CreateChallenge(ctx context.Context, challenge domain.Challenge) error {
	if err := r.store.InsertChallenge(ctx, challenge); err != nil {
		return err
	}
	r.put(challenge)
	return nil
}

func (r *ChallengeRepository) lookup(challengeID string) (domain.Challenge, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[challengeID]; ok && entry.expiresAt.After(now) {
		return entry.challenge, true
	}
	return domain.Challenge{}, false
}

func (r *ChallengeRepository) put(challenge domain.Challenge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[challenge.ID] = cachedChallenge{
		challenge: challenge,
		expiresAt: r.clock().Add(r.ttlWithJitter()),
	}
}

// ttlWithJitter must be called with r.mu held; rand.Rand is not goroutine safe.
func (r *ChallengeRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// ChallengeStore is a map-backed app.ChallengeStore (useful for tests/demos).
type ChallengeStore struct {
	mu         sync.RWMutex
	challenges map[string]domain.Challenge
}

func NewChallengeStore(challenges map[string]domain.Challenge) *ChallengeStore {
	copied := make(map[string]domain.Challenge, len(challenges))
	for id, c := range challenges {
		copied[id] = c
	}
	return &ChallengeStore{challenges: copied}
}

func (s *ChallengeStore) LoadChallenge(_ context.Context, challengeID string) (domain.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.challenges[challengeID]; ok {
		return c, nil
	}
	return domain.Challenge{}, domain.ErrChallengeNotFound
}

func (s *ChallengeStore) InsertChallenge(_ context.Context, challenge domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[challenge.ID]; ok {
		return domain.ErrChallengeExists
	}
	s.challenges[challenge.ID] = challenge
	return nil
}

// Delete removes a challenge; used to exercise dangling references.
func (s *ChallengeStore) Delete(challengeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, challengeID)
}
