package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"quiz-runner/internal/config"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/logger"
)

// NewRunCmd builds the CLI subcommand for an interactive console quiz.
func NewRunCmd(configPath *string) *cobra.Command {
	var (
		name     string
		setID    string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiz(cmd, *configPath, name, setID, duration)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "participant name")
	cmd.Flags().StringVar(&setID, "set", "", "question set to play (defaults from config)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "time limit (defaults from config)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runQuiz(cmd *cobra.Command, configPath, name, setID string, duration time.Duration) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if setID == "" {
		setID = cfg.Quiz.Set
	}
	session, err := service.NewAttempt(ctx, setID)
	if err != nil {
		return err
	}

	session.Events().Subscribe(&scoreObserver{log: log})
	session.Events().Subscribe(&timeObserver{log: log})
	session.Events().Subscribe(&completionObserver{log: log})

	if err := session.Start(name, duration); err != nil {
		return err
	}
	session.Timer().Events().Subscribe(&countdownObserver{log: log})

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		progress := session.Progress()
		if !progress.Active {
			break
		}
		question, ok := session.CurrentQuestion()
		if !ok {
			break
		}

		fmt.Fprintf(out, "\n--- Question %d/%d | %s left | score %d ---\n",
			progress.QuestionNumber, progress.TotalQuestions,
			progress.Remaining.Round(time.Second), progress.Score)
		fmt.Fprintln(out, question.Render())
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}
		candidate, err := parseCandidate(question, scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		result, err := session.SubmitAnswer(candidate)
		if errors.Is(err, domain.ErrInvalidState) {
			break
		}
		if err != nil {
			return err
		}
		printResult(out, result)
		if result.TimedOut {
			break
		}
	}

	summary, err := service.Finish(ctx, session)
	if err != nil {
		return err
	}
	printSummary(out, summary)

	if participant, err := service.Participant(ctx, name); err == nil {
		fmt.Fprintf(out, "Lifetime: %d points over %d attempts (avg %.1f)\n",
			participant.TotalScore, participant.Attempts, participant.AverageScore())
	}
	if lb, err := service.Leaderboard(ctx, 10); err == nil && len(lb.Entries) > 0 {
		fmt.Fprintln(out, "\nLeaderboard:")
		for i, entry := range lb.Entries {
			fmt.Fprintf(out, "  %d. %s: %d points (%d attempts)\n", i+1, entry.Name, entry.TotalScore, entry.Attempts)
		}
	}
	return nil
}

func printResult(out io.Writer, result domain.AnswerResult) {
	switch {
	case result.TimedOut:
		fmt.Fprintln(out, "\nTime is up! Quiz ended.")
	case result.Correct:
		fmt.Fprintf(out, "Correct! +%d points (score: %d)\n", result.PointsEarned, result.CurrentScore)
	default:
		fmt.Fprintf(out, "Incorrect. The correct answer was: %v\n", result.CorrectAnswer)
		if result.Explanation != "" {
			fmt.Fprintf(out, "Note: %s\n", result.Explanation)
		}
	}
}

func printSummary(out io.Writer, summary domain.Summary) {
	fmt.Fprintf(out, "\n===== Results for %s =====\n", summary.Participant)
	fmt.Fprintf(out, "Answered:    %d/%d\n", summary.AnsweredQuestions, summary.TotalQuestions)
	fmt.Fprintf(out, "Final score: %d\n", summary.FinalScore)
	fmt.Fprintf(out, "Time taken:  %s\n", summary.Elapsed.Round(time.Second))
}
