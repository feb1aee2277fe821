package cli

import (
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/pubsub"
)

// scoreObserver reports answer outcomes and running score.
type scoreObserver struct {
	log *zap.Logger
}

func (o *scoreObserver) Notify(event pubsub.Event) {
	switch event.Kind {
	case app.EventAnswerSubmitted:
		payload := event.Data.(app.AnswerSubmittedPayload)
		if payload.Correct {
			o.log.Info("correct answer",
				zap.Int("points", payload.PointsEarned),
				zap.Int("score", payload.CurrentScore))
		} else {
			o.log.Info("incorrect answer", zap.Int("score", payload.CurrentScore))
		}
	case app.EventQuestionsLoaded:
		payload := event.Data.(app.QuestionsLoadedPayload)
		o.log.Info("questions loaded", zap.Int("count", payload.Count))
	}
}

// timeObserver reports attempt start and question progression.
type timeObserver struct {
	log *zap.Logger
}

func (o *timeObserver) Notify(event pubsub.Event) {
	switch event.Kind {
	case app.EventQuizStarted:
		payload := event.Data.(app.QuizStartedPayload)
		o.log.Info("quiz started",
			zap.String("participant", payload.Participant),
			zap.Duration("duration", payload.Duration))
	case app.EventQuestionChanged:
		payload := event.Data.(app.QuestionChangedPayload)
		o.log.Info("question changed",
			zap.Int("number", payload.Number),
			zap.Int("total", payload.Total))
	}
}

// completionObserver reports the final summary once per attempt.
type completionObserver struct {
	log *zap.Logger
}

func (o *completionObserver) Notify(event pubsub.Event) {
	if event.Kind != app.EventQuizComplete {
		return
	}
	payload := event.Data.(app.QuizCompletePayload)
	o.log.Info("quiz complete",
		zap.String("participant", payload.Summary.Participant),
		zap.Int("finalScore", payload.Summary.FinalScore),
		zap.Int("answered", payload.Summary.AnsweredQuestions),
		zap.Int("total", payload.Summary.TotalQuestions),
		zap.Duration("elapsed", payload.Summary.Elapsed))
}

// countdownObserver reports timer expiry; ticks are left quiet to keep the
// console readable.
type countdownObserver struct {
	log *zap.Logger
}

func (o *countdownObserver) Notify(event pubsub.Event) {
	if event.Kind == app.EventTimerExpired {
		o.log.Info("time is up")
	}
}
