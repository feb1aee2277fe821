package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
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

func testSet(t *testing.T, id string) domain.QuestionSet {
	t.Helper()
	set, err := domain.NewQuestionSet(domain.SetSpec{
		ID: id,
		Questions: []domain.Spec{
			{Prompt: "Is water wet?", Kind: domain.KindBoolean, Answer: true, Points: 5},
		},
	})
	if err != nil {
		t.Fatalf("build set: %v", err)
	}
	return set
}

func TestQuestionBankCachesLoads(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{sets: map[string]domain.QuestionSet{"basics": testSet(t, "basics")}}
	bank := memory.NewQuestionBank(source, time.Minute)

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
}

func TestQuestionBankRefetchesAfterTTL(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{sets: map[string]domain.QuestionSet{"basics": testSet(t, "basics")}}
	bank := memory.NewQuestionBank(source, 5*time.Millisecond)

	if _, err := bank.QuestionSet(ctx, "basics"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	if _, err := bank.QuestionSet(ctx, "basics"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if n := source.loadCount(); n != 2 {
		t.Fatalf("expected a reload after expiry, got %d loads", n)
	}
}

func TestQuestionBankPropagatesNotFound(t *testing.T) {
	bank := memory.NewQuestionBank(&countingSource{}, time.Minute)
	if _, err := bank.QuestionSet(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected set-not-found, got %v", err)
	}
}
