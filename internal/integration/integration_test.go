package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	pgsource "quiz-runner/internal/infra/postgres"
	pgmigrations "quiz-runner/internal/infra/postgres/migrations"
	redisinfra "quiz-runner/internal/infra/redis"
)

func TestTimedAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, sampleSetSpec())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	source := pgsource.NewQuestionSource(pool)
	bank := redisinfra.NewQuestionBank(redisClient, source, 5*time.Minute)
	results := redisinfra.NewResultStore(redisClient, time.Hour)
	service := app.NewQuizService(bank, results, 5*time.Minute, nil)

	session, err := service.NewAttempt(ctx, "general-knowledge")
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	if err := session.Start("Alice", 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := session.SubmitAnswer("4"); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if _, err := session.SubmitAnswer(true); err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	summary, err := service.Finish(ctx, session)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if summary.FinalScore != 15 || summary.AnsweredQuestions != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// A second attempt hits the Redis cache rather than Postgres, and the
	// standings accumulate across attempts.
	session, err = service.NewAttempt(ctx, "general-knowledge")
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if err := session.Start("Alice", 0); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if _, err := session.SubmitAnswer("3"); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if _, err := service.Finish(ctx, session); err != nil {
		t.Fatalf("second finish: %v", err)
	}

	participant, err := service.Participant(ctx, "Alice")
	if err != nil {
		t.Fatalf("participant: %v", err)
	}
	if participant.TotalScore != 15 || participant.Attempts != 2 {
		t.Fatalf("unexpected standing: %+v", participant)
	}

	board, err := service.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Name != "Alice" || board.Entries[0].TotalScore != 15 {
		t.Fatalf("unexpected leaderboard: %+v", board.Entries)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, spec domain.SetSpec) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal set: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, spec.ID, string(data)); err != nil {
		t.Fatalf("insert set: %v", err)
	}
}

func sampleSetSpec() domain.SetSpec {
	return domain.SetSpec{
		ID: "general-knowledge",
		Questions: []domain.Spec{
			{Prompt: "What is 2 + 2?", Kind: domain.KindSingleChoice, Answer: "4", Options: []string{"3", "4", "5"}, Points: 10},
			{Prompt: "The sky is blue.", Kind: domain.KindBoolean, Answer: true, Points: 5},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
