package cli

import (
	"fmt"
	"strconv"
	"strings"

	"quiz-runner/internal/domain"
)

// parseCandidate translates raw console input into a typed candidate answer
// matching the question's answer kind. The session itself never parses
// text; that responsibility lives with the presentation layer.
func parseCandidate(question domain.Question, input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("enter an answer")
	}

	switch question.Kind() {
	case domain.KindSingleChoice:
		options := question.Options()
		if n, err := strconv.Atoi(input); err == nil {
			if n < 1 || n > len(options) {
				return nil, fmt.Errorf("choose an option between 1 and %d", len(options))
			}
			return options[n-1], nil
		}
		return input, nil
	case domain.KindBoolean:
		switch strings.ToLower(input) {
		case "1", "true", "t", "yes", "y":
			return true, nil
		case "2", "false", "f", "no", "n":
			return false, nil
		}
		return nil, fmt.Errorf("answer 1 (true) or 2 (false)")
	default:
		return input, nil
	}
}
