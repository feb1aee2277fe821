package cli

import (
	"fmt"

	"quiz-runner/internal/domain"
)

// sampleQuestionSets provides a built-in question set for the zero-infra
// path; configure Postgres to serve real content.
func sampleQuestionSets() map[string]domain.QuestionSet {
	set, err := domain.NewQuestionSet(domain.SetSpec{
		ID: "general-knowledge",
		Questions: []domain.Spec{
			{
				Prompt:  "Which data structure uses LIFO (last in, first out)?",
				Kind:    domain.KindSingleChoice,
				Answer:  "Stack",
				Options: []string{"Queue", "Array", "Stack", "Linked List"},
				Points:  10,
			},
			{
				Prompt:  "What is 2 + 2?",
				Kind:    domain.KindSingleChoice,
				Answer:  "4",
				Options: []string{"3", "4", "5"},
				Points:  10,
			},
			{
				Prompt: "The keyword 'def' defines a function in Python.",
				Kind:   domain.KindBoolean,
				Answer: true,
				Points: 5,
			},
			{
				Prompt:      "Which planet is known as the Red Planet?",
				Kind:        domain.KindFreeText,
				Answer:      "Mars",
				Points:      5,
				Explanation: "Iron oxide on its surface gives Mars its reddish color.",
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("built-in question set is invalid: %v", err))
	}
	return map[string]domain.QuestionSet{set.ID: set}
}
