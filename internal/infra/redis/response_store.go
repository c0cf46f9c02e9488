package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"challenge-response-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ResponseStore keeps response documents as JSON under response:{responseID}.
// Replace runs inside WATCH/MULTI so a concurrent status change aborts the write.
type ResponseStore struct {
	client *redis.Client
}

func NewResponseStore(client *redis.Client) *ResponseStore {
	return &ResponseStore{client: client}
}

func (s *ResponseStore) Insert(ctx context.Context, r domain.Response) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(r.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	if !ok {
		return fmt.Errorf("response %s already exists", r.ID)
	}
	return nil
}

func (s *ResponseStore) FindByID(ctx context.Context, responseID string) (domain.Response, error) {
	raw, err := s.client.Get(ctx, s.key(responseID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, fmt.Errorf("load response: %w", err)
	}
	var r domain.Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return r, nil
}

func (s *ResponseStore) Replace(ctx context.Context, r domain.Response, expected domain.ResponseStatus) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	key := s.key(r.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrResponseNotFound
		}
		if err != nil {
			return err
		}
		var current struct {
			Status domain.ResponseStatus `json:"status"`
		}
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if current.Status != expected {
			return domain.ErrStatusConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrStatusConflict
	}
	return err
}

func (s *ResponseStore) key(responseID string) string {
	return "response:" + responseID
}
