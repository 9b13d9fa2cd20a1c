package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes reports to the log. Used when Telegram is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, text string) error {
	n.logger.Info("report", zap.String("text", text))
	return nil
}
