package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"field_visits/internal/config"
	"field_visits/internal/utils"
	"field_visits/pkg/zaplogger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "fieldVisits",
	Short:         "Field agent visit records: HTTP API, Telegram form and spreadsheet export",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to an optional .env file")
	rootCmd.AddCommand(serveCmd, botCmd, exportCmd)
}

func main() {
	logger, err := zaplogger.New()
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()

	utils.HandleFatalError(err, logger, "command failed")
}

// newLogger логгер по настройкам команды.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return zaplogger.New(zaplogger.Options{Level: cfg.Level, File: cfg.File})
}

// bootLogger нужен до загрузки конфигурации.
func bootLogger() *zap.Logger {
	logger, err := zaplogger.New()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
