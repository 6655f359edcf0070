package config

type Config struct {
	ServerConfig
	StoreConfig
	LogConfig
	GoogleSheetConfig
}

type ServerConfig struct {
	Port           int    `envconfig:"PORT" default:"5000" validate:"min=1,max=65535"`
	CORSOrigin     string `envconfig:"CORS_ORIGIN" default:"*" validate:"required"`
	TimeZone       string `envconfig:"TIME_ZONE" default:"UTC" validate:"required,timezone"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
}

type StoreConfig struct {
	URI    string `envconfig:"STORE_URI" required:"true" masked:"uri" validate:"required,uri"`
	DBName string `envconfig:"STORE_DB" default:"realFincorpDB"`
}

type LogConfig struct {
	File  string `envconfig:"LOG_FILE"`
	Level string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// GoogleSheetConfig включает зеркалирование новых записей в Google Sheet.
type GoogleSheetConfig struct {
	Enabled           bool   `envconfig:"SHEET_ENABLED" default:"false"`
	SpreadsheetID     string `envconfig:"SHEET_ID" masked:"true" validate:"required_if=Enabled true"`
	SheetID           string `envconfig:"SHEET_TAB_ID" masked:"true" validate:"required_if=Enabled true"`
	CredentialsBase64 string `envconfig:"CREDENTIALS_BASE64" masked:"true" validate:"required_if=Enabled true"`
	PauseMs           int    `envconfig:"SHEET_PAUSE_MS" default:"1000" validate:"min=0"`
	SyncIntervalMin   int    `envconfig:"SHEET_SYNC_INTERVAL_MIN" default:"10" validate:"min=1"`
	Columns           string `envconfig:"SHEET_COLUMNS"`
}

// BotConfig используется только командой bot.
type BotConfig struct {
	TelegramConfig
	FormConfig
	UploadConfig
	LogConfig
}

type TelegramConfig struct {
	BotToken string  `envconfig:"BOT_TOKEN" required:"true" masked:"true" validate:"required"`
	Ignore   []int64 `envconfig:"BOT_IGNORE"`
}

type FormConfig struct {
	DeploymentFile string `envconfig:"FORM_DEPLOYMENT_FILE"`
	Variant        string `envconfig:"FORM_VARIANT" default:"realfincorp" validate:"oneof=partner realfincorp"`
	Endpoint       string `envconfig:"FORM_ENDPOINT" validate:"omitempty,url"`
}

type UploadConfig struct {
	Endpoint      string `envconfig:"UPLOAD_ENDPOINT" validate:"required"`
	AccessKey     string `envconfig:"UPLOAD_ACCESS_KEY" masked:"true" validate:"required"`
	SecretKey     string `envconfig:"UPLOAD_SECRET_KEY" masked:"true" validate:"required"`
	Bucket        string `envconfig:"UPLOAD_BUCKET" default:"visit-images" validate:"required"`
	UseSSL        bool   `envconfig:"UPLOAD_USE_SSL" default:"true"`
	PublicBaseURL string `envconfig:"UPLOAD_PUBLIC_BASE_URL" validate:"required,url"`
	JPEGQuality   int    `envconfig:"UPLOAD_JPEG_QUALITY" default:"70" validate:"min=1,max=100"`
}

// ExportConfig используется командой export.
type ExportConfig struct {
	StoreConfig
	LogConfig
	TimeZone string `envconfig:"TIME_ZONE" default:"UTC" validate:"required,timezone"`
}
