package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BitcoinAdvisor/internal/dca"
	"BitcoinAdvisor/internal/logger"
	"BitcoinAdvisor/internal/model"
	"BitcoinAdvisor/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Provider       string        `yaml:"provider"` // yahoo, rest, mock
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		Symbol         string        `yaml:"symbol"`
		DefaultPeriod  string        `yaml:"default_period"`
		RequestsPerSec int           `yaml:"requests_per_sec"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Indicators model.IndicatorParams `yaml:"indicators"`
	Rules      struct {
		Preset string           `yaml:"preset"`
		Custom *model.RuleTable `yaml:"custom"`
	} `yaml:"rules"`
	DCA struct {
		Amount   float64 `yaml:"amount"`
		Interval string  `yaml:"interval"`
	} `yaml:"dca"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Currency struct {
		Display       string        `yaml:"display"`
		BaseURL       string        `yaml:"base_url"`
		AllowFallback bool          `yaml:"allow_fallback"`
		FallbackRate  float64       `yaml:"fallback_rate"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"currency"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron"`
		DCACron      string `yaml:"dca_cron"`
	} `yaml:"schedule"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("DATA_PROVIDER", &c.DataSource.Provider)
	setString("DATA_BASE_URL", &c.DataSource.BaseURL)
	setString("DATA_API_KEY", &c.DataSource.APIKey)
	setString("SYMBOL", &c.DataSource.Symbol)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("REDIS_ADDR", &c.Cache.RedisAddr)
	setString("REDIS_PASSWORD", &c.Cache.RedisPassword)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("CRON_ANALYSIS", &c.Schedule.AnalysisCron)
	setString("DCA_INTERVAL", &c.DCA.Interval)
	setString("RULES_PRESET", &c.Rules.Preset)
	setString("LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DCA_AMOUNT"); v != "" {
		if amount, err := strconv.ParseFloat(v, 64); err == nil {
			c.DCA.Amount = amount
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "BTC-USD"
	}
	if c.DataSource.DefaultPeriod == "" {
		c.DataSource.DefaultPeriod = string(model.Period1Y)
	}
	if c.DataSource.RequestsPerSec == 0 {
		c.DataSource.RequestsPerSec = 2
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Indicators.ShortWindow == 0 {
		c.Indicators.ShortWindow = model.DefaultIndicatorParams.ShortWindow
	}
	if c.Indicators.LongWindow == 0 {
		c.Indicators.LongWindow = model.DefaultIndicatorParams.LongWindow
	}
	if c.Indicators.RSIWindow == 0 {
		c.Indicators.RSIWindow = model.DefaultIndicatorParams.RSIWindow
	}
	if c.DCA.Amount == 0 {
		c.DCA.Amount = 100
	}
	if c.DCA.Interval == "" {
		c.DCA.Interval = "weekly"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Currency.Display == "" {
		c.Currency.Display = "IDR"
	}
	if c.Currency.BaseURL == "" {
		c.Currency.BaseURL = "https://open.er-api.com/v6/latest"
	}
	if c.Currency.TTL == 0 {
		c.Currency.TTL = time.Hour
	}
	if c.Schedule.AnalysisCron == "" {
		c.Schedule.AnalysisCron = "0 5 0 * * *"
	}
	if c.Schedule.DCACron == "" {
		c.Schedule.DCACron = "0 0 9 * * 1"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 100
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = 30
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 7
	}
}

// Validate checks that all values are usable before any component starts.
func (c *Config) Validate() error {
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if _, err := model.ParsePeriod(c.DataSource.DefaultPeriod); err != nil {
		return fmt.Errorf("data_source.default_period: %w", err)
	}
	ind := c.Indicators
	if ind.ShortWindow <= 0 || ind.LongWindow <= 0 || ind.RSIWindow <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if ind.ShortWindow >= ind.LongWindow {
		return fmt.Errorf("indicators.sma_short (%d) must be smaller than indicators.sma_long (%d)", ind.ShortWindow, ind.LongWindow)
	}
	if _, err := strategy.Resolve(c.Rules.Preset, c.Rules.Custom); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.DCA.Amount <= 0 {
		return fmt.Errorf("dca.amount must be positive")
	}
	if _, err := dca.ParseInterval(c.DCA.Interval); err != nil {
		return fmt.Errorf("dca.interval: %w", err)
	}
	if c.Currency.AllowFallback && c.Currency.FallbackRate <= 0 {
		return fmt.Errorf("currency.fallback_rate must be positive when allow_fallback is set")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }
