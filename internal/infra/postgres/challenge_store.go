package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"challenge-response-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ChallengeStore keeps challenges as JSONB in Postgres.
type ChallengeStore struct {
	pool *pgxpool.Pool
}

func NewChallengeStore(pool *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{pool: pool}
}

func (s *ChallengeStore) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM challenges WHERE id=$1`, challengeID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	var challenge domain.Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return domain.Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return challenge, nil
}

func (s *ChallengeStore) InsertChallenge(ctx context.Context, challenge domain.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO challenges (id, data, created_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (id) DO NOTHING`,
		challenge.ID, string(data), challenge.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeExists
	}
	return nil
}
