package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/config"
	"quiz-runner/internal/infra/memory"
	pgsource "quiz-runner/internal/infra/postgres"
	redisinfra "quiz-runner/internal/infra/redis"
)

// buildService assembles the question bank and result store from config:
// Postgres-backed questions and Redis-backed caching/results when
// configured, in-memory fallbacks otherwise. The returned cleanup closes
// whatever was opened.
func buildService(ctx context.Context, cfg config.Config, log *zap.Logger) (*app.QuizService, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	}

	var source memory.QuestionSource = memory.NewStaticSource(sampleQuestionSets())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
		source = pgsource.NewQuestionSource(pool)
	}

	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var bank app.QuestionBank
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, source, cacheTTL)
	} else {
		bank = memory.NewQuestionBank(source, cacheTTL)
	}

	var results app.ResultStore
	if redisClient != nil {
		results = redisinfra.NewResultStore(redisClient, config.Duration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		results = memory.NewResultStore()
	}

	duration := config.Duration(cfg.Quiz.Duration, 5*time.Minute)
	return app.NewQuizService(bank, results, duration, log), cleanup, nil
}
