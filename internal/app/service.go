package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quiz-runner/internal/domain"
)

// QuestionBank loads validated question sets (from cache/backing store).
type QuestionBank interface {
	QuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// ResultStore persists completed-attempt summaries and aggregated
// participant standings (in-memory, Redis, etc).
type ResultStore interface {
	RecordResult(ctx context.Context, summary domain.Summary) error
	Participant(ctx context.Context, name string) (domain.Participant, error)
	Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error)
}

// QuizService wires question sourcing and result persistence around
// sessions. Sessions themselves are explicitly constructed and returned to
// the caller; the service holds no hidden per-attempt state, so independent
// sessions can run concurrently.
type QuizService struct {
	bank            QuestionBank
	results         ResultStore
	defaultDuration time.Duration
	log             *zap.Logger
}

func NewQuizService(bank QuestionBank, results ResultStore, defaultDuration time.Duration, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{bank: bank, results: results, defaultDuration: defaultDuration, log: log}
}

// NewAttempt loads the question set and returns a fresh session primed with
// it. The caller drives the session and finishes it through Finish.
func (s *QuizService) NewAttempt(ctx context.Context, setID string) (*Session, error) {
	set, err := s.bank.QuestionSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	session := NewSession(s.defaultDuration, s.log)
	if err := session.LoadQuestions(set.Questions); err != nil {
		return nil, err
	}
	return session, nil
}

// Finish ends the session (a no-op if the timer already ended it) and
// records the summary. Recording is best-effort: a store failure is logged
// and the summary is still returned, since the authoritative result lives
// in the session.
func (s *QuizService) Finish(ctx context.Context, session *Session) (domain.Summary, error) {
	summary, err := session.End()
	if err != nil {
		return domain.Summary{}, err
	}
	if err := s.results.RecordResult(ctx, summary); err != nil {
		s.log.Warn("failed to record attempt result",
			zap.String("participant", summary.Participant),
			zap.Error(err))
	}
	return summary, nil
}

// Participant returns the aggregated standing of one participant.
func (s *QuizService) Participant(ctx context.Context, name string) (domain.Participant, error) {
	return s.results.Participant(ctx, name)
}

// Leaderboard returns up to limit participants ordered by total score.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	return s.results.Leaderboard(ctx, limit)
}
