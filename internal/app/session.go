package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/pubsub"
)

// Session is one timed attempt at a loaded question sequence by one
// participant. All externally visible operations are guarded by a single
// mutex, so a SubmitAnswer racing the timer's auto-end cannot double-count
// score or complete the quiz twice. Each attempt's timer is watched so
// that when the countdown expires, the session ends even if the
// participant never submits another answer.
type Session struct {
	events *pubsub.Subject
	log    *zap.Logger

	mu          sync.Mutex
	attemptID   string
	questions   []domain.Question
	index       int
	participant string
	active      bool
	score       int
	duration    time.Duration
	timer       *Timer
	watcher     *timerWatcher
	startedAt   time.Time
	elapsed     time.Duration

	now  func() time.Time
	tick time.Duration
}

// NewSession builds an inactive session with a default attempt duration.
// Questions must be loaded before the first Start.
func NewSession(defaultDuration time.Duration, log *zap.Logger) *Session {
	return NewSessionWithClock(defaultDuration, time.Now, time.Second, log)
}

// NewSessionWithClock is test-only for deterministic timing.
func NewSessionWithClock(defaultDuration time.Duration, now func() time.Time, tick time.Duration, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		events:   pubsub.NewSubject(log),
		log:      log,
		duration: defaultDuration,
		now:      now,
		tick:     tick,
	}
}

// Events exposes the session's notification channel. Subscribers receive
// the session's own events; timer ticks are published on the timer's
// channel, reachable through Timer.
func (s *Session) Events() *pubsub.Subject { return s.events }

// Timer returns the timer of the current attempt, nil before the first
// Start.
func (s *Session) Timer() *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer
}

// LoadQuestions replaces the question sequence and resets the position.
// Loading mid-attempt is rejected; an empty list is ErrInvalidInput.
func (s *Session) LoadQuestions(questions []domain.Question) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot load questions during an active attempt", domain.ErrInvalidState)
	}
	if len(questions) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: questions list cannot be empty", domain.ErrInvalidInput)
	}
	s.questions = make([]domain.Question, len(questions))
	copy(s.questions, questions)
	s.index = 0
	count := len(s.questions)
	s.mu.Unlock()

	s.events.Publish(pubsub.Event{Kind: EventQuestionsLoaded, Data: QuestionsLoadedPayload{Count: count}})
	return nil
}

// Start begins a fresh attempt for participant, resetting position and
// score and starting a new countdown. A non-positive duration keeps the
// configured default. If an attempt is already active it is ended first.
func (s *Session) Start(participant string, duration time.Duration) error {
	s.mu.Lock()
	if len(s.questions) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: no questions loaded", domain.ErrInvalidState)
	}

	var events []pubsub.Event
	if s.active {
		_, endEvents := s.endLocked()
		events = append(events, endEvents...)
	}

	if duration > 0 {
		s.duration = duration
	}
	s.attemptID = uuid.NewString()
	s.participant = participant
	s.index = 0
	s.score = 0
	s.active = true
	s.startedAt = s.now()
	s.elapsed = 0

	if s.timer != nil && s.watcher != nil {
		s.timer.Events().Unsubscribe(s.watcher)
	}
	timer := NewTimerWithClock(s.duration, s.now, s.tick, s.log)
	watcher := &timerWatcher{session: s, timer: timer}
	timer.Events().Subscribe(watcher)
	s.timer = timer
	s.watcher = watcher

	events = append(events, pubsub.Event{
		Kind: EventQuizStarted,
		Data: QuizStartedPayload{Participant: participant, Duration: s.duration},
	})
	s.mu.Unlock()

	for _, e := range events {
		s.events.Publish(e)
	}
	// Started after publishing so a zero-duration attempt still announces
	// itself before its immediate expiry.
	timer.Start()
	return nil
}

// CurrentQuestion returns the question at the current position. The second
// return is false when the position is out of range or nothing is loaded.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (domain.Question, bool) {
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// SubmitAnswer scores candidate against the current question, advances the
// position, and ends the attempt if that was the last question. If the
// countdown has already expired the answer is not scored: the attempt is
// ended and the result reports the timeout. Expiry is never an error.
func (s *Session) SubmitAnswer(candidate any) (domain.AnswerResult, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.AnswerResult{}, fmt.Errorf("%w: no active attempt", domain.ErrInvalidState)
	}

	if s.timer != nil && s.timer.Expired() {
		_, events := s.endLocked()
		score := s.score
		s.mu.Unlock()
		for _, e := range events {
			s.events.Publish(e)
		}
		return domain.AnswerResult{TimedOut: true, CurrentScore: score}, nil
	}

	question, ok := s.currentLocked()
	if !ok {
		s.mu.Unlock()
		return domain.AnswerResult{}, fmt.Errorf("%w: no current question", domain.ErrInvalidState)
	}

	correct := question.CheckAnswer(candidate)
	points := 0
	if correct {
		points = question.Points()
		s.score += points
	}
	s.index++

	events := []pubsub.Event{{
		Kind: EventAnswerSubmitted,
		Data: AnswerSubmittedPayload{Correct: correct, PointsEarned: points, CurrentScore: s.score},
	}}
	if s.index < len(s.questions) {
		events = append(events, pubsub.Event{
			Kind: EventQuestionChanged,
			Data: QuestionChangedPayload{Number: s.index + 1, Total: len(s.questions)},
		})
	} else {
		_, endEvents := s.endLocked()
		events = append(events, endEvents...)
	}

	result := domain.AnswerResult{
		Correct:       correct,
		PointsEarned:  points,
		CorrectAnswer: question.CorrectAnswer(),
		Explanation:   question.Explanation(),
		CurrentScore:  s.score,
	}
	s.mu.Unlock()

	for _, e := range events {
		s.events.Publish(e)
	}
	return result, nil
}

// End finishes the attempt and returns its summary. Ending an already
// inactive attempt returns the same summary again without re-running
// completion side effects, which tolerates the race between timer-driven
// auto-end and an explicit end. Ending a session that was never started is
// ErrInvalidState.
func (s *Session) End() (domain.Summary, error) {
	s.mu.Lock()
	if s.startedAt.IsZero() {
		s.mu.Unlock()
		return domain.Summary{}, fmt.Errorf("%w: no attempt to end", domain.ErrInvalidState)
	}
	summary, events := s.endLocked()
	s.mu.Unlock()

	for _, e := range events {
		s.events.Publish(e)
	}
	return summary, nil
}

// endLocked transitions active attempts to ended and computes the summary.
// The quiz-complete event is produced only on the actual transition.
func (s *Session) endLocked() (domain.Summary, []pubsub.Event) {
	if !s.active {
		return s.summaryLocked(), nil
	}
	s.active = false
	if s.timer != nil {
		s.elapsed = s.timer.Elapsed()
		// An expired timer's countdown goroutine exits on its own right
		// after the terminal event; stopping it here from inside that
		// event's delivery would wait on ourselves.
		if !s.timer.Expired() {
			s.timer.Stop()
		}
	} else {
		s.elapsed = s.now().Sub(s.startedAt)
	}

	summary := s.summaryLocked()
	return summary, []pubsub.Event{{Kind: EventQuizComplete, Data: QuizCompletePayload{Summary: summary}}}
}

func (s *Session) summaryLocked() domain.Summary {
	total := len(s.questions)
	return domain.Summary{
		AttemptID:         s.attemptID,
		Participant:       s.participant,
		TotalQuestions:    total,
		AnsweredQuestions: min(s.index, total),
		FinalScore:        s.score,
		Elapsed:           s.elapsed,
	}
}

// Progress reports the live state of the attempt. If the countdown has
// expired, the attempt is ended as a side effect and an inactive progress
// is returned, so callers never observe a stale active window.
func (s *Session) Progress() domain.Progress {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return domain.Progress{Active: false}
	}
	if s.timer != nil && s.timer.Expired() {
		_, events := s.endLocked()
		s.mu.Unlock()
		for _, e := range events {
			s.events.Publish(e)
		}
		return domain.Progress{Active: false}
	}

	progress := domain.Progress{
		Active:         true,
		QuestionNumber: s.index + 1,
		TotalQuestions: len(s.questions),
		Score:          s.score,
	}
	if s.timer != nil {
		progress.Remaining = s.timer.Remaining()
	}
	s.mu.Unlock()
	return progress
}

// timerWatcher delivers a timer's terminal expiration to the session that
// started it. An attempt's countdown can outlive the attempt: when a query
// expires the timer eagerly, the goroutine still owes its terminal event
// on the next wakeup, which may land after a restart has already swapped
// in a fresh timer. Carrying the owning timer lets the session discard
// those stale expirations instead of ending the new attempt.
type timerWatcher struct {
	session *Session
	timer   *Timer
}

func (w *timerWatcher) Notify(event pubsub.Event) {
	if event.Kind != EventTimerExpired {
		return
	}
	w.session.expireTimer(w.timer)
}

// expireTimer ends the attempt whose countdown reached zero. Expirations
// from a timer the session no longer owns are ignored.
func (s *Session) expireTimer(t *Timer) {
	s.mu.Lock()
	if s.timer != t || !s.active {
		s.mu.Unlock()
		return
	}
	_, events := s.endLocked()
	s.mu.Unlock()
	for _, e := range events {
		s.events.Publish(e)
	}
}
