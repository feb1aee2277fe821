package logger

import "go.uber.org/zap"

// New builds the process logger: JSON output in production, console
// output everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
