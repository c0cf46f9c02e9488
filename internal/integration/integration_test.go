package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"challenge-response-service/internal/app"
	"challenge-response-service/internal/domain"
	"challenge-response-service/internal/infra/memory"
	mongostore "challenge-response-service/internal/infra/mongo"
	"challenge-response-service/internal/infra/postgres"
	pgmigrations "challenge-response-service/internal/infra/postgres/migrations"
	infraredis "challenge-response-service/internal/infra/redis"
	"challenge-response-service/internal/scoring"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestLifecyclePostgresWithRedisCache(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "challenge", "POSTGRES_PASSWORD": "challengepass", "POSTGRES_DB": "challengedb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp", "postgres://challenge:challengepass@%s:%s/challengedb?sslmode=disable")
	defer pgCleanup()
	redisURL, redisCleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp", "redis://%s:%s")
	defer redisCleanup()

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL))), pgdialect.New())
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisOpts, err := goredis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("redis url: %v", err)
	}
	redisClient := goredis.NewClient(redisOpts)
	defer redisClient.Close()

	challenges := infraredis.NewChallengeRepository(redisClient, postgres.NewChallengeStore(pool), 5*time.Minute)
	runLifecycle(t, ctx, challenges, postgres.NewResponseStore(db))

	exists, err := redisClient.Exists(ctx, "challenge:challenge-1").Result()
	if err != nil || exists != 1 {
		t.Fatalf("expected challenge cached in redis, exists=%d err=%v", exists, err)
	}

	changed := sampleChallenge()
	changed.Questions = changed.Questions[:1]
	if err := challenges.CreateChallenge(ctx, changed); !errors.Is(err, domain.ErrChallengeExists) {
		t.Fatalf("expected existing challenge to be kept, got %v", err)
	}

	// Responses kept in Redis instead of Postgres.
	runLifecycle(t, ctx, challenges, infraredis.NewResponseStore(redisClient))
}

func TestLifecycleMongo(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}, "27017/tcp", "mongodb://%s:%s")
	defer cleanup()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database("challenges_test")

	responses := mongostore.NewResponseStore(db)
	if err := responses.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	challenges := memory.NewChallengeRepository(mongostore.NewChallengeStore(db), time.Minute)
	runLifecycle(t, ctx, challenges, responses)

	if err := mongostore.NewChallengeStore(db).InsertChallenge(ctx, sampleChallenge()); !errors.Is(err, domain.ErrChallengeExists) {
		t.Fatalf("expected duplicate challenge rejected, got %v", err)
	}
}

func runLifecycle(t *testing.T, ctx context.Context, challengeRepo app.ChallengeRepository, responseRepo app.ResponseRepository) {
	t.Helper()
	challenges := app.NewChallengeService(challengeRepo)
	if _, err := challenges.Create(ctx, sampleChallenge()); err != nil && !errors.Is(err, domain.ErrChallengeExists) {
		t.Fatalf("create challenge: %v", err)
	}
	service := app.NewResponseService(responseRepo, challengeRepo, scoring.NewEngine(scoring.Sum))

	r, err := service.Begin(ctx, "challenge-1", "u1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := service.SubmitResponses(ctx, r.ID, map[string]domain.Answer{
		"q1": {Choice: "o2"},
		"q2": {Text: "because"},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.Finalize(ctx, r.ID, "u1")
		}(i)
	}
	wg.Wait()
	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, domain.ErrAlreadyFinalized):
			t.Fatalf("unexpected finalize error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one finalize to succeed, got %d", succeeded)
	}

	graded, err := service.SubmitScores(ctx, r.ID, map[string]domain.ScoreSubmission{
		"q2": {Score: domain.Float(2), Notes: "good"},
	})
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if graded.Scoring.Status != domain.ScoringGraded || graded.Scoring.OverallScore != 3 {
		t.Fatalf("unexpected scoring %+v", graded.Scoring)
	}

	found, err := service.FindOne(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Status != domain.StatusComplete || found.Scoring.Questions["q2"].Notes != "good" {
		t.Fatalf("unexpected stored response %+v", found)
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port, urlFormat string) (string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return fmt.Sprintf(urlFormat, host, mapped.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func sampleChallenge() domain.Challenge {
	return domain.Challenge{
		ID:    "challenge-1",
		Title: "Arithmetic",
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
			{ID: "q2", Type: domain.QuestionTypeFreeText, Prompt: "Why?", Points: 2},
		},
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
