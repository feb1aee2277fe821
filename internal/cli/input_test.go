package cli

import (
	"testing"

	"quiz-runner/internal/domain"
)

func mustQuestion(t *testing.T, spec domain.Spec) domain.Question {
	t.Helper()
	q, err := domain.NewQuestion(spec)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}
	return q
}

func TestParseCandidateSingleChoice(t *testing.T) {
	q := mustQuestion(t, domain.Spec{
		Prompt: "Pick one", Kind: domain.KindSingleChoice,
		Answer: "b", Options: []string{"a", "b", "c"}, Points: 1,
	})

	candidate, err := parseCandidate(q, "2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if candidate != "b" {
		t.Fatalf("expected option b, got %v", candidate)
	}

	// Raw text is passed through for the question to score.
	candidate, err = parseCandidate(q, "b")
	if err != nil {
		t.Fatalf("parse text: %v", err)
	}
	if candidate != "b" {
		t.Fatalf("expected b, got %v", candidate)
	}

	if _, err := parseCandidate(q, "7"); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestParseCandidateBoolean(t *testing.T) {
	q := mustQuestion(t, domain.Spec{
		Prompt: "True or false", Kind: domain.KindBoolean, Answer: true, Points: 1,
	})

	for input, want := range map[string]bool{
		"1": true, "true": true, "YES": true, "y": true,
		"2": false, "false": false, "No": false, "f": false,
	} {
		candidate, err := parseCandidate(q, input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if candidate != want {
			t.Fatalf("parse %q: expected %v, got %v", input, want, candidate)
		}
	}

	if _, err := parseCandidate(q, "maybe"); err == nil {
		t.Fatalf("expected an error for ambiguous input")
	}
}

func TestParseCandidateFreeText(t *testing.T) {
	q := mustQuestion(t, domain.Spec{
		Prompt: "Name it", Kind: domain.KindFreeText, Answer: "Mars", Points: 1,
	})

	candidate, err := parseCandidate(q, "  mars ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if candidate != "mars" {
		t.Fatalf("expected trimmed text, got %q", candidate)
	}

	if _, err := parseCandidate(q, "   "); err == nil {
		t.Fatalf("expected an error for blank input")
	}
}
