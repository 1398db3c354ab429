package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-journal/internal/models"
	"gopkg.in/yaml.v3"
)

// Store backend names
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Store    StoreConfig
	Claude   ClaudeConfig
	Log      LogConfig
	Journal  JournalConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// KafkaConfig holds Kafka configuration. No brokers disables events.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	CommandsTopic string
	GroupID       string
}

// StoreConfig selects the persisted state backend
type StoreConfig struct {
	Backend string
}

// ClaudeConfig holds the AI intake configuration
type ClaudeConfig struct {
	APIKey    string
	Endpoint  string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// JournalConfig holds account starting values and policies
type JournalConfig struct {
	MaxRiskPercent decimal.Decimal
	Accounts       []AccountConfig
}

// AccountConfig is one account as written in the YAML file
type AccountConfig struct {
	Name               string  `yaml:"name"`
	StartingValue      float64 `yaml:"starting_value"`
	MaxPositionPercent float64 `yaml:"max_position_percent"`
	AllowShort         bool    `yaml:"allow_short"`
	RequireStopLoss    bool    `yaml:"require_stop_loss"`
	MaxOpenPositions   int     `yaml:"max_open_positions"`
	CooldownDays       int     `yaml:"cooldown_days"`
}

// fileConfig is the optional YAML layout
type fileConfig struct {
	MaxRiskPercent float64         `yaml:"max_risk_percent"`
	Accounts       []AccountConfig `yaml:"accounts"`
}

// Load reads configuration from the optional JOURNAL_CONFIG YAML file and
// then from environment variables, which win
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "tradingjournal"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "journal"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:         getEnv("KAFKA_TOPIC", "journal-events"),
			CommandsTopic: getEnv("KAFKA_COMMANDS_TOPIC", "journal-commands"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "trading-journal"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		},
		Claude: ClaudeConfig{
			APIKey:    getEnv("CLAUDE_API_KEY", ""),
			Endpoint:  getEnv("CLAUDE_API_ENDPOINT", "https://api.anthropic.com/v1/messages"),
			Model:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
			MaxTokens: getEnvInt("CLAUDE_MAX_TOKENS", 1024),
			Timeout:   getEnvDuration("CLAUDE_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Console:    getEnv("LOG_CONSOLE", "true") == "true",
			File:       getEnv("LOG_FILE", "false") == "true",
			FilePath:   getEnv("LOG_FILE_PATH", "logs/journal.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
			MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 30),
		},
		Journal: JournalConfig{
			MaxRiskPercent: decimal.NewFromInt(2),
			Accounts:       DefaultAccounts(),
		},
	}

	if path := os.Getenv("JOURNAL_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyAccountEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultAccounts returns the built-in account rules
func DefaultAccounts() []AccountConfig {
	return []AccountConfig{
		{Name: models.AccountIncomeGenerator, StartingValue: 10000, MaxPositionPercent: 20, RequireStopLoss: false, MaxOpenPositions: 10},
		{Name: models.AccountSpeculation, StartingValue: 5000, MaxPositionPercent: 10, AllowShort: true, RequireStopLoss: true, MaxOpenPositions: 5, CooldownDays: 2},
		{Name: models.AccountTradingLab, StartingValue: 1000, MaxPositionPercent: 25, AllowShort: true, RequireStopLoss: true, MaxOpenPositions: 3, CooldownDays: 1},
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if fc.MaxRiskPercent > 0 {
		c.Journal.MaxRiskPercent = decimal.NewFromFloat(fc.MaxRiskPercent)
	}
	for _, acct := range fc.Accounts {
		name, ok := models.CanonicalAccountName(acct.Name)
		if !ok || name == models.AccountUncategorized {
			return fmt.Errorf("parse config: unknown account %q", acct.Name)
		}
		acct.Name = name
		c.setAccount(acct)
	}
	return nil
}

func (c *Config) applyAccountEnv() {
	envs := map[string]string{
		models.AccountIncomeGenerator: "STARTING_INCOME_GENERATOR",
		models.AccountSpeculation:     "STARTING_SPECULATION",
		models.AccountTradingLab:      "STARTING_TRADING_LAB",
	}
	for i := range c.Journal.Accounts {
		key := envs[c.Journal.Accounts[i].Name]
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Journal.Accounts[i].StartingValue = f
			}
		}
	}
	if v := os.Getenv("MAX_RISK_PERCENT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			c.Journal.MaxRiskPercent = d
		}
	}
}

func (c *Config) setAccount(acct AccountConfig) {
	for i := range c.Journal.Accounts {
		if c.Journal.Accounts[i].Name == acct.Name {
			c.Journal.Accounts[i] = acct
			return
		}
	}
	c.Journal.Accounts = append(c.Journal.Accounts, acct)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("store backend must be memory, postgres or redis, got %q", c.Store.Backend)
	}
	for _, acct := range c.Journal.Accounts {
		if acct.StartingValue < 0 {
			return fmt.Errorf("account %s: starting_value must not be negative", acct.Name)
		}
		if acct.MaxPositionPercent < 0 || acct.MaxPositionPercent > 100 {
			return fmt.Errorf("account %s: max_position_percent must be between 0 and 100", acct.Name)
		}
	}
	return nil
}

// StartingValues maps account names to their configured starting value
func (j JournalConfig) StartingValues() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(j.Accounts))
	for _, a := range j.Accounts {
		out[a.Name] = decimal.NewFromFloat(a.StartingValue)
	}
	return out
}

// Policies converts the account rules for the intake validator
func (j JournalConfig) Policies() []models.AccountPolicy {
	out := make([]models.AccountPolicy, 0, len(j.Accounts))
	for _, a := range j.Accounts {
		out = append(out, models.AccountPolicy{
			Account:            a.Name,
			MaxPositionPercent: decimal.NewFromFloat(a.MaxPositionPercent),
			AllowShort:         a.AllowShort,
			RequireStopLoss:    a.RequireStopLoss,
			MaxOpenPositions:   a.MaxOpenPositions,
			CooldownDays:       a.CooldownDays,
		})
	}
	return out
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
