package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-runner/internal/domain"
)

// QuestionSource loads question-set JSONB from Postgres. Stored specs are
// validated on load, so malformed rows fail here rather than mid-quiz.
type QuestionSource struct {
	pool *pgxpool.Pool
}

func NewQuestionSource(pool *pgxpool.Pool) *QuestionSource {
	return &QuestionSource{pool: pool}
}

func (s *QuestionSource) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, setID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}

	var spec domain.SetSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	if spec.ID == "" {
		spec.ID = setID
	}
	set, err := domain.NewQuestionSet(spec)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("question set %s: %w", setID, err)
	}
	return set, nil
}
