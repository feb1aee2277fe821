package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quiz-runner/internal/domain"
	redisinfra "quiz-runner/internal/infra/redis"
)

type countingSource struct {
	mu    sync.Mutex
	loads int
	sets  map[string]domain.QuestionSet
}

func (s *countingSource) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	if set, ok := s.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

func (s *countingSource) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func newTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testSet(t *testing.T, id string) domain.QuestionSet {
	t.Helper()
	set, err := domain.NewQuestionSet(domain.SetSpec{
		ID: id,
		Questions: []domain.Spec{
			{Prompt: "Which planet is known as the Red Planet?", Kind: domain.KindFreeText, Answer: "Mars", Points: 5},
		},
	})
	if err != nil {
		t.Fatalf("build set: %v", err)
	}
	return set
}

func TestQuestionBankCachesInRedis(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	source := &countingSource{sets: map[string]domain.QuestionSet{"basics": testSet(t, "basics")}}
	bank := redisinfra.NewQuestionBank(client, source, time.Minute)

	for i := 0; i < 3; i++ {
		set, err := bank.QuestionSet(ctx, "basics")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if set.ID != "basics" || len(set.Questions) != 1 {
			t.Fatalf("unexpected set: %+v", set)
		}
	}
	if n := source.loadCount(); n != 1 {
		t.Fatalf("expected one source load, got %d", n)
	}

	if exists := client.Exists(ctx, "quiz:set:basics").Val(); exists != 1 {
		t.Fatalf("expected cached key in redis")
	}
}

func TestQuestionBankSurvivesCorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	source := &countingSource{sets: map[string]domain.QuestionSet{"basics": testSet(t, "basics")}}
	bank := redisinfra.NewQuestionBank(client, source, time.Minute)

	if err := client.Set(ctx, "quiz:set:basics", "not json", 0).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	set, err := bank.QuestionSet(ctx, "basics")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if set.ID != "basics" {
		t.Fatalf("unexpected set: %+v", set)
	}
	if n := source.loadCount(); n != 1 {
		t.Fatalf("expected fallback to the source, got %d loads", n)
	}
}

func TestQuestionBankPropagatesNotFound(t *testing.T) {
	bank := redisinfra.NewQuestionBank(newTestRedis(t), &countingSource{}, time.Minute)
	if _, err := bank.QuestionSet(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected set-not-found, got %v", err)
	}
}
