package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const closeTimeout = 10 * time.Second

// HandleFatalError завершает процесс, если err не nil.
// Если логгер nil, вызывает panic.
func HandleFatalError(err error, logger *zap.Logger, msg string) {
	if logger == nil {
		panic("logger is nil")
	}
	if err != nil {
		logger.Fatal(msg, zap.Error(err))
	}
}

// CloseWithLog закрывает ресурс с таймаутом и логирует ошибку закрытия.
func CloseWithLog(logger *zap.Logger, name string, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := closeFn(ctx); err != nil {
		logger.Error("failed to close", zap.String("resource", name), zap.Error(err))
		return
	}
	logger.Info("closed", zap.String("resource", name))
}
