package main

import (
	"fmt"
	"time"

	"field_visits/internal/config"
	"field_visits/internal/form"
	"field_visits/internal/service/tg"
	"field_visits/internal/service/upload"
	pkg_config "field_visits/pkg/config"
	"field_visits/pkg/masker"
	"field_visits/pkg/tgbotapisfm"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram visit form",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := config.BotConfig{}
	if err := pkg_config.LoadEnv(envFile, bootLogger(), &cfg); err != nil {
		return fmt.Errorf("error loading configs: %w", err)
	}

	logger, err := newLogger(cfg.LogConfig)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := masker.LogConfigs(logger, &cfg); err != nil {
		return fmt.Errorf("error logging configs: %w", err)
	}

	deployment, err := loadDeployment(cfg.FormConfig)
	if err != nil {
		return err
	}
	variant, err := deployment.FormVariant()
	if err != nil {
		return err
	}
	submitter, err := deployment.Submitter()
	if err != nil {
		return err
	}

	uploader, err := upload.NewMinioUploader(ctx, upload.Options{
		Endpoint:      cfg.UploadConfig.Endpoint,
		AccessKey:     cfg.UploadConfig.AccessKey,
		SecretKey:     cfg.UploadConfig.SecretKey,
		Bucket:        cfg.UploadConfig.Bucket,
		UseSSL:        cfg.UploadConfig.UseSSL,
		PublicBaseURL: cfg.UploadConfig.PublicBaseURL,
		JPEGQuality:   cfg.UploadConfig.JPEGQuality,
	}, logger)
	if err != nil {
		return fmt.Errorf("error creating uploader: %w", err)
	}

	handler := tg.NewTGHandler(variant, uploader, submitter, logger)

	bot, err := tgbotapisfm.NewBot(tgbotapisfm.Config{
		Token:           cfg.TelegramConfig.BotToken,
		Expiration:      24 * time.Hour,
		CleanupInterval: time.Hour,
		States:          handler.StatesMap(),
	}, cfg.TelegramConfig.Ignore, logger)
	if err != nil {
		return fmt.Errorf("error creating bot: %w", err)
	}

	logger.Info("form deployment", zap.String("variant", variant.Name), zap.String("endpoint", deployment.Endpoint))

	if err := <-bot.Start(ctx, 0, 30); err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}

// loadDeployment берет файл развертывания, если он задан, иначе FORM_VARIANT и FORM_ENDPOINT.
func loadDeployment(cfg config.FormConfig) (form.Deployment, error) {
	if cfg.DeploymentFile != "" {
		return form.LoadDeployment(cfg.DeploymentFile)
	}
	d := form.Deployment{Variant: cfg.Variant, Endpoint: cfg.Endpoint}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}
