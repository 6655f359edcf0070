package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfigs загружает конфигурации из переменных окружения и проверяет их.
func LoadConfigs(config ...interface{}) error {
	for _, cfg := range config {
		if err := process(cfg); err != nil {
			return err
		}
	}
	return nil
}

// LoadEnv как LoadConfigs, но сначала пытается подгрузить .env.
// Если файла нет, используются только переменные окружения.
func LoadEnv(path string, logger *zap.Logger, config ...interface{}) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", path, err)
			}
			logger.Info("no .env file found, using environment variables", zap.String("path", path))
		}
	}
	return LoadConfigs(config...)
}

// Validate проверяет теги validate у структуры.
func Validate(cfg interface{}) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func process(cfg interface{}) error {
	if err := envconfig.Process("", cfg); err != nil {
		return err
	}
	return Validate(cfg)
}
