package domain

import (
	"fmt"
	"strings"
)

// AnswerKind discriminates how a question's correct answer is typed and compared.
type AnswerKind string

const (
	// KindSingleChoice expects one of the question's options as the answer.
	KindSingleChoice AnswerKind = "single_choice"
	// KindBoolean expects a true/false answer.
	KindBoolean AnswerKind = "boolean"
	// KindFreeText expects a string answer, matched case-insensitively after trimming.
	KindFreeText AnswerKind = "free_text"
)

// Spec is the declarative, serializable form of a question. Answer is a
// string for single-choice and free-text kinds and a bool for boolean kind;
// JSON decoding produces exactly those types.
type Spec struct {
	Prompt      string     `json:"prompt"`
	Kind        AnswerKind `json:"kind"`
	Answer      any        `json:"answer"`
	Points      int        `json:"points"`
	Options     []string   `json:"options,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// Question is an immutable quiz question. Instances are only obtainable
// through NewQuestion, so a Question in hand is always valid and is safe to
// share read-only between a session and its observers.
type Question struct {
	prompt      string
	kind        AnswerKind
	answer      any
	points      int
	options     []string
	explanation string
}

// NewQuestion validates spec and builds a question from it. Violated rules
// surface as errors wrapping ErrValidation.
func NewQuestion(spec Spec) (Question, error) {
	if strings.TrimSpace(spec.Prompt) == "" {
		return Question{}, fmt.Errorf("%w: prompt cannot be empty", ErrValidation)
	}
	if spec.Points < 0 {
		return Question{}, fmt.Errorf("%w: points cannot be negative", ErrValidation)
	}

	switch spec.Kind {
	case KindSingleChoice:
		if len(spec.Options) < 2 {
			return Question{}, fmt.Errorf("%w: single-choice questions need at least 2 options", ErrValidation)
		}
		seen := make(map[string]struct{}, len(spec.Options))
		for _, opt := range spec.Options {
			if _, dup := seen[opt]; dup {
				return Question{}, fmt.Errorf("%w: options must be distinct", ErrValidation)
			}
			seen[opt] = struct{}{}
		}
		answer, ok := spec.Answer.(string)
		if !ok {
			return Question{}, fmt.Errorf("%w: single-choice questions need a string correct answer", ErrValidation)
		}
		if _, ok := seen[answer]; !ok {
			return Question{}, fmt.Errorf("%w: correct answer must be one of the options", ErrValidation)
		}
	case KindBoolean:
		if _, ok := spec.Answer.(bool); !ok {
			return Question{}, fmt.Errorf("%w: boolean questions need a boolean correct answer", ErrValidation)
		}
		if len(spec.Options) > 0 {
			return Question{}, fmt.Errorf("%w: boolean questions must not have options", ErrValidation)
		}
	case KindFreeText:
		if _, ok := spec.Answer.(string); !ok {
			return Question{}, fmt.Errorf("%w: free-text questions need a string correct answer", ErrValidation)
		}
		if len(spec.Options) > 0 {
			return Question{}, fmt.Errorf("%w: free-text questions must not have options", ErrValidation)
		}
	default:
		return Question{}, fmt.Errorf("%w: unsupported answer kind %q", ErrValidation, spec.Kind)
	}

	options := make([]string, len(spec.Options))
	copy(options, spec.Options)
	return Question{
		prompt:      spec.Prompt,
		kind:        spec.Kind,
		answer:      spec.Answer,
		points:      spec.Points,
		options:     options,
		explanation: spec.Explanation,
	}, nil
}

// CheckAnswer reports whether candidate matches the correct answer. A
// candidate of the wrong type is simply incorrect, never an error.
func (q Question) CheckAnswer(candidate any) bool {
	switch q.kind {
	case KindSingleChoice:
		s, ok := candidate.(string)
		return ok && s == q.answer.(string)
	case KindBoolean:
		b, ok := candidate.(bool)
		return ok && b == q.answer.(bool)
	case KindFreeText:
		s, ok := candidate.(string)
		if !ok {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(q.answer.(string)))
	default:
		return false
	}
}

// CorrectAnswer returns the stored correct answer unchanged.
func (q Question) CorrectAnswer() any { return q.answer }

// Prompt returns the question text.
func (q Question) Prompt() string { return q.prompt }

// Kind returns the answer kind.
func (q Question) Kind() AnswerKind { return q.kind }

// Points returns the points awarded for a correct answer.
func (q Question) Points() int { return q.points }

// Explanation returns the optional answer explanation, empty if none.
func (q Question) Explanation() string { return q.explanation }

// Options returns a copy of the option list, empty for non-choice kinds.
func (q Question) Options() []string {
	options := make([]string, len(q.options))
	copy(options, q.options)
	return options
}

// Spec re-derives the declarative form of the question, used by caching
// layers that persist questions as JSON.
func (q Question) Spec() Spec {
	return Spec{
		Prompt:      q.prompt,
		Kind:        q.kind,
		Answer:      q.answer,
		Points:      q.points,
		Options:     q.Options(),
		Explanation: q.explanation,
	}
}

// Render produces the display string for the question: prompt, enumerated
// options where applicable, and the point value. Pure, no side effects.
func (q Question) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", q.prompt)
	switch q.kind {
	case KindSingleChoice:
		b.WriteString("Options:\n")
		for i, opt := range q.options {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, opt)
		}
	case KindBoolean:
		b.WriteString("Options:\n  1. True\n  2. False\n")
	case KindFreeText:
		b.WriteString("Enter your answer:\n")
	}
	fmt.Fprintf(&b, "Points: %d", q.points)
	return b.String()
}

// SetSpec is the serializable form of a whole question set.
type SetSpec struct {
	ID        string `json:"id"`
	Questions []Spec `json:"questions"`
}

// QuestionSet is a validated, ordered collection of questions.
type QuestionSet struct {
	ID        string
	Questions []Question
}

// NewQuestionSet validates every spec in order and fails on the first
// violation, naming the offending position.
func NewQuestionSet(spec SetSpec) (QuestionSet, error) {
	questions := make([]Question, 0, len(spec.Questions))
	for i, qs := range spec.Questions {
		q, err := NewQuestion(qs)
		if err != nil {
			return QuestionSet{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return QuestionSet{ID: spec.ID, Questions: questions}, nil
}

// Spec re-derives the declarative form of the set.
func (s QuestionSet) Spec() SetSpec {
	specs := make([]Spec, 0, len(s.Questions))
	for _, q := range s.Questions {
		specs = append(specs, q.Spec())
	}
	return SetSpec{ID: s.ID, Questions: specs}
}
