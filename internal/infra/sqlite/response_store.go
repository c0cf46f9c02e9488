package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
)

// ResponseStore keeps responses in a single table; answers and scoring are JSON text.
type ResponseStore struct {
	db *sql.DB
}

func NewResponseStore(db *sql.DB) *ResponseStore {
	return &ResponseStore{db: db}
}

func (s *ResponseStore) Insert(ctx context.Context, r domain.Response) error {
	answers, scoring, err := encode(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (id, uid, challenge_id, status, responses, scoring, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UID, r.ChallengeID, string(r.Status), answers, scoring,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (s *ResponseStore) FindByID(ctx context.Context, responseID string) (domain.Response, error) {
	var (
		r                    domain.Response
		status               string
		answers, scoring     string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, uid, challenge_id, status, responses, scoring, created_at, updated_at
		 FROM responses WHERE id = ?`, responseID).
		Scan(&r.ID, &r.UID, &r.ChallengeID, &status, &answers, &scoring, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, fmt.Errorf("load response: %w", err)
	}
	r.Status = domain.ResponseStatus(status)
	if err := json.Unmarshal([]byte(answers), &r.Responses); err != nil {
		return domain.Response{}, fmt.Errorf("unmarshal responses: %w", err)
	}
	if err := json.Unmarshal([]byte(scoring), &r.Scoring); err != nil {
		return domain.Response{}, fmt.Errorf("unmarshal scoring: %w", err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Response{}, fmt.Errorf("parse created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.Response{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return r, nil
}

func (s *ResponseStore) Replace(ctx context.Context, r domain.Response, expected domain.ResponseStatus) error {
	answers, scoring, err := encode(r)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE responses SET status = ?, responses = ?, scoring = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(r.Status), answers, scoring, formatTime(r.UpdatedAt), r.ID, string(expected))
	if err != nil {
		return fmt.Errorf("replace response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace response: %w", err)
	}
	if n == 0 {
		return app.ReplaceMissed(ctx, s, r.ID)
	}
	return nil
}

func encode(r domain.Response) (string, string, error) {
	answers, err := json.Marshal(r.Responses)
	if err != nil {
		return "", "", fmt.Errorf("marshal responses: %w", err)
	}
	scoring, err := json.Marshal(r.Scoring)
	if err != nil {
		return "", "", fmt.Errorf("marshal scoring: %w", err)
	}
	return string(answers), string(scoring), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
