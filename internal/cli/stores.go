package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/config"
	"challenge-response-service/internal/domain"
	"challenge-response-service/internal/infra/memory"
	mongostore "challenge-response-service/internal/infra/mongo"
	"challenge-response-service/internal/infra/postgres"
	redisstore "challenge-response-service/internal/infra/redis"
	"challenge-response-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stores holds the wired repositories and whatever must be closed on shutdown.
type stores struct {
	challenges app.ChallengeRepository
	responses  app.ResponseRepository
	closers    []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStores(ctx context.Context, cfg config.Config) (*stores, error) {
	s := &stores{}
	var source app.ChallengeStore

	switch cfg.Storage.Driver {
	case "memory":
		source = memory.NewChallengeStore(sampleChallenges())
		s.responses = memory.NewResponseStore()
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("postgres url not configured")
		}
		db := openBun(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { db.Close() })
		if err := migrateDB(ctx, db); err != nil {
			s.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		source = postgres.NewChallengeStore(pool)
		s.responses = postgres.NewResponseStore(db)
	case "mongo":
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		s.closers = append(s.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		})
		if err := client.Ping(ctx, nil); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		responses := mongostore.NewResponseStore(db)
		if err := responses.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, err
		}
		source = mongostore.NewChallengeStore(db)
		s.responses = responses
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { db.Close() })
		source = sqlite.NewChallengeStore(db)
		s.responses = sqlite.NewResponseStore(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { redisClient.Close() })
	}

	challengeTTL := config.TTLDuration(cfg.Challenge.TTL, 10*time.Minute)
	if redisClient != nil {
		s.challenges = redisstore.NewChallengeRepository(redisClient, source, config.TTLDuration(cfg.Redis.TTL, challengeTTL))
	} else {
		s.challenges = memory.NewChallengeRepository(source, challengeTTL)
	}

	if cfg.Storage.Responses == "redis" {
		if redisClient == nil {
			s.Close()
			return nil, fmt.Errorf("storage.responses is redis but redis addr not configured")
		}
		s.responses = redisstore.NewResponseStore(redisClient)
	}

	log.Printf("storage: driver=%s responses=%s redis=%t", cfg.Storage.Driver, responsesBackend(cfg), redisClient != nil)
	return s, nil
}

func responsesBackend(cfg config.Config) string {
	if cfg.Storage.Responses != "" {
		return cfg.Storage.Responses
	}
	return cfg.Storage.Driver
}

// sampleChallenges seeds the in-memory store for local runs.
func sampleChallenges() map[string]domain.Challenge {
	return map[string]domain.Challenge{
		"challenge-1": {
			ID:    "challenge-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Type:   domain.QuestionTypeMultipleChoice,
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "5"},
					},
					Correct: "o2",
					Points:  1,
				},
				{
					ID:     "q2",
					Type:   domain.QuestionTypeFreeText,
					Prompt: "Explain how you got there.",
					Points: 2,
				},
			},
			CreatedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}
