package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"challenge-response-service/internal/domain"
)

// ChallengeStore keeps challenges as JSON text.
type ChallengeStore struct {
	db *sql.DB
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func (s *ChallengeStore) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM challenges WHERE id = ?`, challengeID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	var challenge domain.Challenge
	if err := json.Unmarshal([]byte(raw), &challenge); err != nil {
		return domain.Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return challenge, nil
}

func (s *ChallengeStore) InsertChallenge(ctx context.Context, challenge domain.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO challenges (id, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		challenge.ID, string(data), challenge.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	if n == 0 {
		return domain.ErrChallengeExists
	}
	return nil
}
