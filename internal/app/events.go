package app

import (
	"time"

	"quiz-runner/internal/domain"
)

// Event kinds published by Timer and Session subjects.
const (
	EventQuestionsLoaded = "questions_loaded"
	EventQuizStarted     = "quiz_started"
	EventAnswerSubmitted = "answer_submitted"
	EventQuestionChanged = "question_changed"
	EventQuizComplete    = "quiz_complete"
	EventTimerTick       = "timer_tick"
	EventTimerExpired    = "timer_expired"
)

// QuestionsLoadedPayload accompanies EventQuestionsLoaded.
type QuestionsLoadedPayload struct {
	Count int
}

// QuizStartedPayload accompanies EventQuizStarted.
type QuizStartedPayload struct {
	Participant string
	Duration    time.Duration
}

// AnswerSubmittedPayload accompanies EventAnswerSubmitted.
type AnswerSubmittedPayload struct {
	Correct      bool
	PointsEarned int
	CurrentScore int
}

// QuestionChangedPayload accompanies EventQuestionChanged. Number is 1-based.
type QuestionChangedPayload struct {
	Number int
	Total  int
}

// QuizCompletePayload accompanies EventQuizComplete.
type QuizCompletePayload struct {
	Summary domain.Summary
}

// TimerTickPayload accompanies EventTimerTick.
type TimerTickPayload struct {
	Remaining time.Duration
}

// TimerExpiredPayload accompanies EventTimerExpired.
type TimerExpiredPayload struct{}
