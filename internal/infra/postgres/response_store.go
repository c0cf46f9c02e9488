package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
	"github.com/uptrace/bun"
)

// ResponseStore persists responses through bun. Answers and scoring are JSONB columns.
type ResponseStore struct {
	db *bun.DB
}

func NewResponseStore(db *bun.DB) *ResponseStore {
	return &ResponseStore{db: db}
}

type responseRow struct {
	bun.BaseModel `bun:"table:responses"`

	ID          string                   `bun:"id,pk"`
	UID         string                   `bun:"uid,notnull"`
	ChallengeID string                   `bun:"challenge_id,notnull"`
	Status      string                   `bun:"status,notnull"`
	Responses   map[string]domain.Answer `bun:"responses,type:jsonb,notnull"`
	Scoring     domain.ScoringDoc        `bun:"scoring,type:jsonb,notnull"`
	CreatedAt   time.Time                `bun:"created_at,notnull"`
	UpdatedAt   time.Time                `bun:"updated_at,notnull"`
}

func toRow(r domain.Response) *responseRow {
	return &responseRow{
		ID:          r.ID,
		UID:         r.UID,
		ChallengeID: r.ChallengeID,
		Status:      string(r.Status),
		Responses:   r.Responses,
		Scoring:     r.Scoring,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (row *responseRow) toDomain() domain.Response {
	return domain.Response{
		ID:          row.ID,
		UID:         row.UID,
		ChallengeID: row.ChallengeID,
		Status:      domain.ResponseStatus(row.Status),
		Responses:   row.Responses,
		Scoring:     row.Scoring,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (s *ResponseStore) Insert(ctx context.Context, r domain.Response) error {
	if _, err := s.db.NewInsert().Model(toRow(r)).Exec(ctx); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (s *ResponseStore) FindByID(ctx context.Context, responseID string) (domain.Response, error) {
	row := new(responseRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", responseID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, fmt.Errorf("load response: %w", err)
	}
	return row.toDomain(), nil
}

// Replace updates the row only while its status is still expected. Zero affected
// rows means the response vanished or its status moved on.
func (s *ResponseStore) Replace(ctx context.Context, r domain.Response, expected domain.ResponseStatus) error {
	res, err := s.db.NewUpdate().
		Model(toRow(r)).
		WherePK().
		Where("status = ?", string(expected)).
		Exec(ctx)
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
