package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-runner/internal/domain"
)

const leaderboardKey = "quiz:leaderboard"

// ResultStore persists participant standings in Redis.
// Totals live in a sorted set:  ZINCRBY quiz:leaderboard {score} {name}
// Attempt counts in hashes:     HINCRBY quiz:participant:{name} attempts 1
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) RecordResult(ctx context.Context, summary domain.Summary) error {
	key := s.participantKey(summary.Participant)

	pipe := s.client.TxPipeline()
	pipe.ZIncrBy(ctx, leaderboardKey, float64(summary.FinalScore), summary.Participant)
	pipe.HIncrBy(ctx, key, "totalScore", int64(summary.FinalScore))
	pipe.HIncrBy(ctx, key, "attempts", 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, leaderboardKey, s.ttl)
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *ResultStore) Participant(ctx context.Context, name string) (domain.Participant, error) {
	fields, err := s.client.HGetAll(ctx, s.participantKey(name)).Result()
	if err != nil {
		return domain.Participant{}, err
	}
	if len(fields) == 0 {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}

	participant := domain.Participant{Name: name}
	if v, err := strconv.Atoi(fields["totalScore"]); err == nil {
		participant.TotalScore = v
	}
	if v, err := strconv.Atoi(fields["attempts"]); err == nil {
		participant.Attempts = v
	}
	return participant, nil
}

func (s *ResultStore) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ranked, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, stop).Result()
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for _, member := range ranked {
		name, _ := member.Member.(string)
		entry := domain.LeaderboardEntry{Name: name, TotalScore: int(member.Score)}
		if attempts, err := s.client.HGet(ctx, s.participantKey(name), "attempts").Int(); err == nil {
			entry.Attempts = attempts
		}
		entries = append(entries, entry)
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: time.Now()}, nil
}

func (s *ResultStore) participantKey(name string) string {
	return "quiz:participant:" + name
}
