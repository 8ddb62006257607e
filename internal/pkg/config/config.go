package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingToken   = errors.New("telegram token is not set")
	ErrMissingDirPath = errors.New("file service dir_path is not set")
)

type Config struct {
	LogLevel    string         `yaml:"log_level" env:"LOG_LEVEL"`
	MetricsAddr string         `yaml:"metrics_addr" env:"METRICS_ADDR"`
	DB          DBCfg          `yaml:"db"`
	Redis       RedisCfg       `yaml:"redis"`
	TelegramCfg TelegramCfg    `yaml:"telegram"`
	MTProto     MTProtoCfg     `yaml:"mtproto"`
	FileService FileServiceCfg `yaml:"file_service"`
	Payment     PaymentCfg     `yaml:"payment"`
	Pricing     PricingCfg     `yaml:"pricing"`
	Reconciler  ReconcilerCfg  `yaml:"reconciler"`
}

type DBCfg struct {
	Host           string `yaml:"host" env:"DB_HOST"`
	Port           uint16 `yaml:"port" env:"DB_PORT"`
	Username       string `yaml:"username" env:"DB_USERNAME"`
	Password       string `yaml:"password" env:"DB_PASSWORD"`
	Database       string `yaml:"database" env:"DB_DATABASE"`
	MaxConnections int    `yaml:"max_connections" env:"DB_MAX_CONNECTIONS"`
}

type RedisCfg struct {
	Addr      string        `yaml:"addr" env:"REDIS_ADDR"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX"`
	AlbumTTL  time.Duration `yaml:"album_ttl" env:"REDIS_ALBUM_TTL"`
}

type TelegramCfg struct {
	Token          string        `yaml:"token" env:"TELEGRAM_TOKEN"`
	ProviderToken  string        `yaml:"provider_token" env:"TELEGRAM_PROVIDER_TOKEN"`
	CollectWindow  time.Duration `yaml:"collect_window" env:"TELEGRAM_COLLECT_WINDOW"`
	InvoiceTimeout time.Duration `yaml:"invoice_timeout" env:"TELEGRAM_INVOICE_TIMEOUT"`
}

// MTProtoCfg enables downloads of files above the Bot API size limit.
type MTProtoCfg struct {
	AppID   int    `yaml:"app_id" env:"MTPROTO_APP_ID"`
	AppHash string `yaml:"app_hash" env:"MTPROTO_APP_HASH"`
}

func (c MTProtoCfg) Enabled() bool {
	return c.AppID != 0 && c.AppHash != ""
}

type FileServiceCfg struct {
	DirPath              string `yaml:"dir_path" env:"FILES_DIR_PATH"`
	MaxParallelDownloads int    `yaml:"max_parallel_downloads" env:"FILES_MAX_PARALLEL_DOWNLOADS"`
	MaxFileSize          int64  `yaml:"max_file_size" env:"FILES_MAX_FILE_SIZE"`
}

type PaymentCfg struct {
	StripeSecretKey string `yaml:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`
}

type PricingCfg struct {
	Currency       string        `yaml:"currency" env:"PRICING_CURRENCY"`
	BasePrice      string        `yaml:"base_price" env:"PRICING_BASE_PRICE"`
	IncludedPages  int           `yaml:"included_pages" env:"PRICING_INCLUDED_PAGES"`
	ExtraPagePrice string        `yaml:"extra_page_price" env:"PRICING_EXTRA_PAGE_PRICE"`
	Shipping       []ShippingCfg `yaml:"shipping"`
}

type ShippingCfg struct {
	Name            string `yaml:"name"`
	Price           string `yaml:"price"`
	MaxDeliveryDays int    `yaml:"max_delivery_days"`
}

type ReconcilerCfg struct {
	Interval time.Duration `yaml:"interval" env:"RECONCILER_INTERVAL"`
	MinAge   time.Duration `yaml:"min_age" env:"RECONCILER_MIN_AGE"`
}

// Load reads the yaml file at path, then applies .env and process
// environment overrides on top.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.MaxConnections == 0 {
		c.DB.MaxConnections = 10
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "photobook:"
	}
	if c.Redis.AlbumTTL == 0 {
		c.Redis.AlbumTTL = 30 * 24 * time.Hour
	}
	if c.TelegramCfg.CollectWindow == 0 {
		c.TelegramCfg.CollectWindow = 2 * time.Second
	}
	if c.TelegramCfg.InvoiceTimeout == 0 {
		c.TelegramCfg.InvoiceTimeout = 10 * time.Minute
	}
	if c.FileService.MaxParallelDownloads == 0 {
		c.FileService.MaxParallelDownloads = 5
	}
	if c.FileService.MaxFileSize == 0 {
		c.FileService.MaxFileSize = 20 * 1024 * 1024
	}
	if c.Pricing.Currency == "" {
		c.Pricing.Currency = "GBP"
	}
	if c.Reconciler.Interval == 0 {
		c.Reconciler.Interval = time.Hour
	}
	if c.Reconciler.MinAge == 0 {
		c.Reconciler.MinAge = 24 * time.Hour
	}
}

func (c *Config) validate() error {
	if c.TelegramCfg.Token == "" {
		return ErrMissingToken
	}
	if c.FileService.DirPath == "" {
		return ErrMissingDirPath
	}
	return nil
}
