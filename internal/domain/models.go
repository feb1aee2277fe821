package domain

import "time"

// AnswerResult summarizes the outcome of a single submission.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	PointsEarned  int    `json:"pointsEarned"`
	CorrectAnswer any    `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	CurrentScore  int    `json:"currentScore"`
	// TimedOut is set when the submission arrived after the deadline; the
	// answer is not scored and the session is over. Expiry is a normal
	// outcome, not an error.
	TimedOut bool `json:"timedOut,omitempty"`
}

// Summary captures the final results of one quiz attempt.
type Summary struct {
	AttemptID         string        `json:"attemptId"`
	Participant       string        `json:"participant"`
	TotalQuestions    int           `json:"totalQuestions"`
	AnsweredQuestions int           `json:"answeredQuestions"`
	FinalScore        int           `json:"finalScore"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Progress is a point-in-time view of an attempt. When Active is false the
// remaining fields are zero.
type Progress struct {
	Active         bool          `json:"active"`
	QuestionNumber int           `json:"questionNumber"` // 1-based
	TotalQuestions int           `json:"totalQuestions"`
	Remaining      time.Duration `json:"remaining"`
	Score          int           `json:"score"`
}

// Participant aggregates a participant's results across attempts.
type Participant struct {
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
	Attempts   int    `json:"attempts"`
}

// AverageScore is the mean final score across completed attempts.
func (p Participant) AverageScore() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return float64(p.TotalScore) / float64(p.Attempts)
}

// LeaderboardEntry is a snapshot-friendly view of a participant's standing.
type LeaderboardEntry struct {
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
	Attempts   int    `json:"attempts"`
}

// Leaderboard is the score-ordered standing of all recorded participants.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
