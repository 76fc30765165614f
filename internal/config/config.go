package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"ridehail-backend-core/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Settlement SettlementConfig `yaml:"settlement"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig contains gRPC server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RequestTimeoutSeconds bounds every unit of work started by a call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Type         string `yaml:"type"` // "postgres" or "memory"
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Migrate      bool   `yaml:"migrate"`
	// MemorySeed fills the tables the memory store cannot write through the
	// API. Ignored for postgres.
	MemorySeed MemorySeedConfig `yaml:"memory_seed"`
}

// MemorySeedConfig lists the rows a memory store starts with.
type MemorySeedConfig struct {
	Settlement      *SettlementSeed `yaml:"settlement"`
	ApprovedDrivers []int64         `yaml:"approved_drivers"`
	BankAccounts    []BankAccount   `yaml:"bank_accounts"`
}

// SettlementSeed holds the percentages as decimal strings, one referral
// percentage per level.
type SettlementSeed struct {
	DriverSavingPct     string   `yaml:"driver_saving_pct"`
	CompanyPct          string   `yaml:"company_pct"`
	ReferralPct         []string `yaml:"referral_pct"`
	DriverCommissionPct string   `yaml:"driver_commission_pct"`
}

type BankAccount struct {
	ID      int64 `yaml:"id"`
	ActorID int64 `yaml:"actor_id"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SettlementConfig holds the money limits that are not part of the
// settlement_settings row.
type SettlementConfig struct {
	MinimumWithdrawal string `yaml:"minimum_withdrawal"`
	SavingsLockDays   int    `yaml:"savings_lock_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	MatureSavings    string `yaml:"mature_savings"`
	AuditSettlements string `yaml:"audit_settlements"`
	// AuditWindowHours is how far back each audit run looks.
	AuditWindowHours int `yaml:"audit_window_hours"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applies environment
// overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("DB_TYPE", &c.Database.Type)
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	envString("JWT_SECRET", &c.JWT.Secret)

	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	envString("MINIMUM_WITHDRAWAL", &c.Settlement.MinimumWithdrawal)
	envInt("SAVINGS_LOCK_DAYS", &c.Settlement.SavingsLockDays)
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = 30
	}

	if c.Database.Type == "" {
		c.Database.Type = "postgres"
	}
	switch c.Database.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
		if err := c.Database.MemorySeed.validate(); err != nil {
			return fmt.Errorf("invalid memory seed: %w", err)
		}
	default:
		return fmt.Errorf("unknown database type %q", c.Database.Type)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Settlement.MinimumWithdrawal == "" {
		c.Settlement.MinimumWithdrawal = "50000"
	}
	if minimum, err := decimal.NewFromString(c.Settlement.MinimumWithdrawal); err != nil || !minimum.IsPositive() {
		return fmt.Errorf("minimum withdrawal must be a positive amount, got %q", c.Settlement.MinimumWithdrawal)
	}
	if c.Settlement.SavingsLockDays == 0 {
		c.Settlement.SavingsLockDays = 365
	}
	if c.Settlement.SavingsLockDays < 0 {
		return fmt.Errorf("savings lock days must not be negative: %d", c.Settlement.SavingsLockDays)
	}

	if c.Scheduler.MatureSavings == "" {
		c.Scheduler.MatureSavings = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.AuditSettlements == "" {
		c.Scheduler.AuditSettlements = "0 15 * * * *" // quarter past every hour
	}
	if c.Scheduler.AuditWindowHours == 0 {
		c.Scheduler.AuditWindowHours = 24
	}

	return nil
}

// MinimumWithdrawal returns the parsed minimum withdrawal amount. Validate
// must have succeeded first.
func (c *Config) MinimumWithdrawal() decimal.Decimal {
	return decimal.RequireFromString(c.Settlement.MinimumWithdrawal)
}

func (m MemorySeedConfig) validate() error {
	if m.Settlement != nil {
		if _, err := m.Settlement.SettlementConfig(); err != nil {
			return err
		}
	}
	for _, id := range m.ApprovedDrivers {
		if id <= 0 {
			return fmt.Errorf("driver id must be positive: %d", id)
		}
	}
	for _, b := range m.BankAccounts {
		if b.ID <= 0 || b.ActorID <= 0 {
			return fmt.Errorf("bank account %d for actor %d needs positive ids", b.ID, b.ActorID)
		}
	}
	return nil
}

// SettlementConfig parses the seeded percentages. Missing referral levels are
// zero.
func (s *SettlementSeed) SettlementConfig() (domain.SettlementConfig, error) {
	var cfg domain.SettlementConfig
	if len(s.ReferralPct) > domain.MaxReferralLevels {
		return cfg, fmt.Errorf("at most %d referral levels, got %d", domain.MaxReferralLevels, len(s.ReferralPct))
	}
	parse := func(name, v string) (decimal.Decimal, error) {
		if v == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", name, err)
		}
		return d, nil
	}

	var err error
	if cfg.DriverSavingPct, err = parse("driver_saving_pct", s.DriverSavingPct); err != nil {
		return cfg, err
	}
	if cfg.CompanyPct, err = parse("company_pct", s.CompanyPct); err != nil {
		return cfg, err
	}
	if cfg.DriverCommissionPct, err = parse("driver_commission_pct", s.DriverCommissionPct); err != nil {
		return cfg, err
	}
	for i, v := range s.ReferralPct {
		if cfg.ReferralPct[i], err = parse(fmt.Sprintf("referral_pct[%d]", i), v); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

func (c *Config) AuditWindow() time.Duration {
	return time.Duration(c.Scheduler.AuditWindowHours) * time.Hour
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
