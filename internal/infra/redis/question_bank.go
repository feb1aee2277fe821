package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
)

// QuestionBank caches question sets in Redis as their declarative JSON form
// and falls back to a source on cache miss. Cached specs re-run validation
// on read, so a bank hit still yields only well-formed questions.
// Sets are stored as: SET quiz:set:{setID} {json} EX ttl
type QuestionBank struct {
	client *redis.Client
	source memory.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, source memory.QuestionSource, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) QuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	key := b.key(setID)

	if set, ok := b.fromCache(ctx, key); ok {
		return set, nil
	}

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := b.fromCache(ctx, key); ok {
			return set, nil
		}

		set, err := b.source.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		if data, err := json.Marshal(set.Spec()); err == nil {
			// best-effort fill; a failed write just means another load later
			_ = b.client.Set(ctx, key, data, b.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (b *QuestionBank) fromCache(ctx context.Context, key string) (domain.QuestionSet, bool) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	var spec domain.SetSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return domain.QuestionSet{}, false
	}
	set, err := domain.NewQuestionSet(spec)
	if err != nil {
		return domain.QuestionSet{}, false
	}
	return set, true
}

func (b *QuestionBank) key(setID string) string {
	return "quiz:set:" + setID
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
