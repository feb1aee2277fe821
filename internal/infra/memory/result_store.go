package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-runner/internal/domain"
)

// ResultStore keeps participant standings in memory.
type ResultStore struct {
	now func() time.Time

	mu           sync.RWMutex
	participants map[string]*standing
}

type standing struct {
	participant domain.Participant
	lastUpdated time.Time
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		now:          time.Now,
		participants: make(map[string]*standing),
	}
}

func (s *ResultStore) RecordResult(_ context.Context, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.participants[summary.Participant]
	if !ok {
		entry = &standing{participant: domain.Participant{Name: summary.Participant}}
		s.participants[summary.Participant] = entry
	}
	entry.participant.TotalScore += summary.FinalScore
	entry.participant.Attempts++
	entry.lastUpdated = s.now()
	return nil
}

func (s *ResultStore) Participant(_ context.Context, name string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.participants[name]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return entry.participant, nil
}

func (s *ResultStore) Leaderboard(_ context.Context, limit int) (domain.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.LeaderboardEntry, 0, len(s.participants))
	for _, entry := range s.participants {
		entries = append(entries, domain.LeaderboardEntry{
			Name:       entry.participant.Name,
			TotalScore: entry.participant.TotalScore,
			Attempts:   entry.participant.Attempts,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		// Tie-break by who reached the score earlier, then name.
		si := s.participants[entries[i].Name]
		sj := s.participants[entries[j].Name]
		if !si.lastUpdated.Equal(sj.lastUpdated) {
			return si.lastUpdated.Before(sj.lastUpdated)
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}
