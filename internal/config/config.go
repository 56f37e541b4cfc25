package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	Postgres  PostgresConfig
	R2        R2Config
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	// APIKey is the static bearer key required on /api routes.
	// Auth is disabled when empty.
	APIKey string
}

type RateLimitConfig struct {
	ScrapesPerHour int
}

type ScraperConfig struct {
	// Concurrency is the batch fan-out width (targets scraped in parallel
	// within one chunk).
	Concurrency int
	// MaxRates stops the selector cascade once this many valid lease rates
	// have been accumulated. Cost bound, not a correctness rule.
	MaxRates int
	// BatchDelayMinMs/BatchDelayMaxMs bound the randomized sleep between
	// chunks.
	BatchDelayMinMs int
	BatchDelayMaxMs int
	// RetentionHours controls how long finished jobs stay in the store.
	RetentionHours int
}

type BrowserConfig struct {
	Headless          bool
	UserAgent         string
	NavTimeoutSec     int
	NetworkIdleSec    int
	SelectorWaitSec   int
	SettleBufferMs    int
	Humanize          bool
}

type PostgresConfig struct {
	// DSN for the persistence sink. The sink is disabled when empty.
	DSN string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type WorkerConfig struct {
	// Concurrency is the number of jobs processed in parallel by the asynq
	// server. Each job owns its own browser sessions.
	Concurrency int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("API_KEY")
	readSecret("POSTGRES_DSN")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("auth.api_key", "API_KEY")
	_ = viper.BindEnv("ratelimit.scrapes_per_hour", "SCRAPES_PER_HOUR")
	_ = viper.BindEnv("scraper.concurrency", "SCRAPER_CONCURRENCY")
	_ = viper.BindEnv("scraper.max_rates", "SCRAPER_MAX_RATES")
	_ = viper.BindEnv("scraper.batch_delay_min_ms", "SCRAPER_BATCH_DELAY_MIN_MS")
	_ = viper.BindEnv("scraper.batch_delay_max_ms", "SCRAPER_BATCH_DELAY_MAX_MS")
	_ = viper.BindEnv("scraper.retention_hours", "SCRAPER_RETENTION_HOURS")
	_ = viper.BindEnv("browser.headless", "BROWSER_HEADLESS")
	_ = viper.BindEnv("browser.user_agent", "BROWSER_USER_AGENT")
	_ = viper.BindEnv("browser.nav_timeout_sec", "BROWSER_NAV_TIMEOUT_SEC")
	_ = viper.BindEnv("browser.network_idle_sec", "BROWSER_NETWORK_IDLE_SEC")
	_ = viper.BindEnv("browser.selector_wait_sec", "BROWSER_SELECTOR_WAIT_SEC")
	_ = viper.BindEnv("browser.settle_buffer_ms", "BROWSER_SETTLE_BUFFER_MS")
	_ = viper.BindEnv("browser.humanize", "BROWSER_HUMANIZE")
	_ = viper.BindEnv("postgres.dsn", "POSTGRES_DSN")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("worker.concurrency", "WORKER_CONCURRENCY")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.scrapes_per_hour", 30)
	viper.SetDefault("scraper.concurrency", 3)
	viper.SetDefault("scraper.max_rates", 5)
	viper.SetDefault("scraper.batch_delay_min_ms", 3000)
	viper.SetDefault("scraper.batch_delay_max_ms", 6000)
	viper.SetDefault("scraper.retention_hours", 72)
	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("browser.nav_timeout_sec", 45)
	viper.SetDefault("browser.network_idle_sec", 10)
	viper.SetDefault("browser.selector_wait_sec", 8)
	viper.SetDefault("browser.settle_buffer_ms", 2000)
	viper.SetDefault("browser.humanize", true)
	viper.SetDefault("worker.concurrency", 2)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			APIKey: viper.GetString("auth.api_key"),
		},
		RateLimit: RateLimitConfig{
			ScrapesPerHour: viper.GetInt("ratelimit.scrapes_per_hour"),
		},
		Scraper: ScraperConfig{
			Concurrency:     viper.GetInt("scraper.concurrency"),
			MaxRates:        viper.GetInt("scraper.max_rates"),
			BatchDelayMinMs: viper.GetInt("scraper.batch_delay_min_ms"),
			BatchDelayMaxMs: viper.GetInt("scraper.batch_delay_max_ms"),
			RetentionHours:  viper.GetInt("scraper.retention_hours"),
		},
		Browser: BrowserConfig{
			Headless:        viper.GetBool("browser.headless"),
			UserAgent:       viper.GetString("browser.user_agent"),
			NavTimeoutSec:   viper.GetInt("browser.nav_timeout_sec"),
			NetworkIdleSec:  viper.GetInt("browser.network_idle_sec"),
			SelectorWaitSec: viper.GetInt("browser.selector_wait_sec"),
			SettleBufferMs:  viper.GetInt("browser.settle_buffer_ms"),
			Humanize:        viper.GetBool("browser.humanize"),
		},
		Postgres: PostgresConfig{
			DSN: viper.GetString("postgres.dsn"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Worker: WorkerConfig{
			Concurrency: viper.GetInt("worker.concurrency"),
		},
	}

	return cfg, nil
}
