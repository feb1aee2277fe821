package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
)

func TestResultStoreAccumulatesStanding(t *testing.T) {
	ctx := context.Background()
	store := memory.NewResultStore()

	for _, score := range []int{10, 5} {
		err := store.RecordResult(ctx, domain.Summary{Participant: "Alice", FinalScore: score})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	participant, err := store.Participant(ctx, "Alice")
	if err != nil {
		t.Fatalf("participant: %v", err)
	}
	if participant.TotalScore != 15 || participant.Attempts != 2 {
		t.Fatalf("unexpected standing: %+v", participant)
	}
	if avg := participant.AverageScore(); avg != 7.5 {
		t.Fatalf("expected average 7.5, got %v", avg)
	}
}

func TestResultStoreUnknownParticipant(t *testing.T) {
	store := memory.NewResultStore()
	if _, err := store.Participant(context.Background(), "nobody"); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant-not-found, got %v", err)
	}
}

func TestLeaderboardOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewResultStore()

	results := []domain.Summary{
		{Participant: "Alice", FinalScore: 10},
		{Participant: "Bob", FinalScore: 25},
		{Participant: "Carol", FinalScore: 5},
	}
	for _, summary := range results {
		if err := store.RecordResult(ctx, summary); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	board, err := store.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected limit of 2, got %d entries", len(board.Entries))
	}
	if board.Entries[0].Name != "Bob" || board.Entries[1].Name != "Alice" {
		t.Fatalf("unexpected order: %+v", board.Entries)
	}
}

func TestLeaderboardTieBreaksByEarlierResult(t *testing.T) {
	ctx := context.Background()
	store := memory.NewResultStore()

	if err := store.RecordResult(ctx, domain.Summary{Participant: "Zoe", FinalScore: 10}); err != nil {
		t.Fatalf("record: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := store.RecordResult(ctx, domain.Summary{Participant: "Amy", FinalScore: 10}); err != nil {
		t.Fatalf("record: %v", err)
	}

	board, err := store.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if board.Entries[0].Name != "Zoe" {
		t.Fatalf("expected the earlier result first, got %+v", board.Entries)
	}
}
