package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-runner/internal/domain"
)

// QuestionSource fetches question sets from a backing store (e.g. Postgres).
type QuestionSource interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionBank memoizes validated question sets in front of a slower
// source. Entries age out after a TTL so content edits show up without a
// restart, and concurrent misses for the same set collapse into a single
// load.
type QuestionBank struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]bankEntry
	rnd   *rand.Rand
}

type bankEntry struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionBank(source QuestionSource, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]bankEntry),
	}
}

func (b *QuestionBank) QuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := b.cached(setID); ok {
		return set, nil
	}

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		// Another goroutine may have filled the entry while we queued.
		if set, ok := b.cached(setID); ok {
			return set, nil
		}
		set, err := b.source.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}
		b.store(setID, set)
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (b *QuestionBank) cached(setID string) (domain.QuestionSet, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.cache[setID]
	if !ok || !entry.expiresAt.After(b.clock()) {
		return domain.QuestionSet{}, false
	}
	return entry.set, true
}

func (b *QuestionBank) store(setID string, set domain.QuestionSet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ttl := b.ttl
	if ttl > 0 {
		// spread expirations by up to 10% so hot sets do not reload in
		// lockstep
		ttl += time.Duration(b.rnd.Int63n(int64(ttl)/10 + 1))
	}
	b.cache[setID] = bankEntry{set: set, expiresAt: b.clock().Add(ttl)}
}

// StaticSource is a simple source backed by an in-memory map (useful for
// tests/demos and the zero-infra console path).
type StaticSource struct {
	sets map[string]domain.QuestionSet
}

func NewStaticSource(sets map[string]domain.QuestionSet) *StaticSource {
	return &StaticSource{sets: sets}
}

func (s *StaticSource) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := s.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}
