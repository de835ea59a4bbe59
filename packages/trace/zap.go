package trace

import (
	"go.uber.org/zap"
)

// ZapLogger forwards trace messages to a zap.Logger, carrying the category
// as a structured field.
type ZapLogger struct {
	logger *zap.Logger
}

func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

func (z *ZapLogger) Log(category Category, msg string) {
	z.logger.Info(msg, zap.String("category", string(category)))
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}
