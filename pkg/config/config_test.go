package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

type storeConfig struct {
	Port     int    `envconfig:"TEST_PORT" default:"5000" validate:"min=1,max=65535"`
	URI      string `envconfig:"TEST_STORE_URI" validate:"required,uri"`
	TimeZone string `envconfig:"TEST_TIME_ZONE" default:"UTC"`
}

type sheetConfig struct {
	Enabled bool   `envconfig:"TEST_SHEET_ENABLED"`
	Columns string `envconfig:"TEST_SHEET_COLUMNS"`
}

func TestLoadEnv_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	body := "TEST_STORE_URI=postgres://app@localhost/visits\nTEST_SHEET_ENABLED=true\nTEST_SHEET_COLUMNS=Name,ARN\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("не удалось создать временный .env: %v", err)
	}
	// godotenv не перезаписывает уже заданные переменные, поэтому чистим их после теста
	t.Cleanup(func() {
		os.Unsetenv("TEST_STORE_URI")
		os.Unsetenv("TEST_SHEET_ENABLED")
		os.Unsetenv("TEST_SHEET_COLUMNS")
	})

	var store storeConfig
	var sheet sheetConfig
	if err := LoadEnv(path, zaptest.NewLogger(t), &store, &sheet); err != nil {
		t.Fatalf("LoadEnv вернул ошибку: %v", err)
	}

	if store.URI != "postgres://app@localhost/visits" || store.Port != 5000 || store.TimeZone != "UTC" {
		t.Errorf("неверная конфигурация хранилища: %+v", store)
	}
	if !sheet.Enabled || sheet.Columns != "Name,ARN" {
		t.Errorf("неверная конфигурация листа: %+v", sheet)
	}
}

func TestLoadEnv_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("TEST_STORE_URI", "mongodb://localhost:27017")

	var cfg storeConfig
	err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"), zaptest.NewLogger(t), &cfg)
	if err != nil {
		t.Fatalf("LoadEnv вернул ошибку: %v", err)
	}
	if cfg.URI != "mongodb://localhost:27017" {
		t.Errorf("неверный URI: %s", cfg.URI)
	}
}

func TestLoadEnv_EmptyPath(t *testing.T) {
	t.Setenv("TEST_STORE_URI", "memory://")

	var cfg storeConfig
	if err := LoadEnv("", zaptest.NewLogger(t), &cfg); err != nil {
		t.Fatalf("LoadEnv вернул ошибку: %v", err)
	}
}

func TestLoadConfigs_ValidationFails(t *testing.T) {
	t.Setenv("TEST_PORT", "70000")
	t.Setenv("TEST_STORE_URI", "postgres://u:p@localhost/db")

	var cfg storeConfig
	if err := LoadConfigs(&cfg); err == nil {
		t.Error("ожидали ошибку валидации порта")
	}
}

func TestLoadConfigs_MissingRequired(t *testing.T) {
	t.Setenv("TEST_STORE_URI", "")

	var cfg storeConfig
	if err := LoadConfigs(&cfg); err == nil {
		t.Error("ожидали ошибку для пустого URI")
	}
}

func TestLoadConfigs_BadValue(t *testing.T) {
	t.Setenv("TEST_PORT", "five")
	t.Setenv("TEST_STORE_URI", "memory://")

	var cfg storeConfig
	if err := LoadConfigs(&cfg); err == nil {
		t.Error("ожидали ошибку разбора порта")
	}
}
