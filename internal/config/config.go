package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects how the pipeline seeds randomness and treats existing data.
type Mode string

const (
	// ModeDev uses a fixed seed and resets the raw tables before writing, so
	// repeated runs produce identical datasets.
	ModeDev Mode = "DEV"
	// ModeIncremental derives the seed from the wall clock and appends
	// transactions to whatever is already stored.
	ModeIncremental Mode = "INCREMENTAL"
)

// Config aggregates application configuration values.
type Config struct {
	Mode      Mode
	Seed      int64
	Generator GeneratorConfig
	Sanity    SanityConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
}

// GeneratorConfig sizes the synthetic population and its activity.
type GeneratorConfig struct {
	NumUsers     int
	NumMerchants int
	WindowDays   int
	// Average transactions per day by user risk segment.
	TxPerDayLow    float64
	TxPerDayMedium float64
	TxPerDayHigh   float64
	Workers        int
}

// SanityConfig bounds the fraud rate a labeled run is allowed to realize.
type SanityConfig struct {
	MinFraudRate float64
	MaxFraudRate float64
}

// DatabaseConfig describes connectivity to the Postgres warehouse.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN renders the config as a Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultSeed         = 42
	defaultNumUsers     = 500
	defaultNumMerchants = 10
	defaultWindowDays   = 21
	defaultTxPerDayLow  = 3
	defaultTxPerDayMed  = 5
	defaultTxPerDayHigh = 10
	defaultWorkers      = 4
	defaultMinFraudRate = 0.0
	defaultMaxFraudRate = 0.05
	defaultDBHost       = "localhost"
	defaultDBPort       = 5432
	defaultDBSSLMode    = "disable"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Load reads configuration from environment variables, applying defaults.
// A .env file in the working directory is honoured when present. Invalid
// values fail here, before any generation work starts.
func Load() (Config, error) {
	_ = godotenv.Load()

	mode := Mode(valueOrDefault("GENERATOR_MODE", string(ModeDev)))
	if mode != ModeDev && mode != ModeIncremental {
		return Config{}, fmt.Errorf("GENERATOR_MODE must be DEV or INCREMENTAL, got %q", mode)
	}

	seed := int64(defaultSeed)
	if mode == ModeIncremental {
		seed = time.Now().Unix()
	}
	if v := os.Getenv("GENERATOR_SEED"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GENERATOR_SEED value %q: %w", v, err)
		}
		seed = parsed
	}

	cfg := Config{
		Mode: mode,
		Seed: seed,
		Generator: GeneratorConfig{
			NumUsers:       parseIntWithDefault("GENERATOR_USERS", defaultNumUsers),
			NumMerchants:   parseIntWithDefault("GENERATOR_MERCHANTS", defaultNumMerchants),
			WindowDays:     parseIntWithDefault("GENERATOR_WINDOW_DAYS", defaultWindowDays),
			TxPerDayLow:    parseFloatWithDefault("GENERATOR_TX_PER_DAY_LOW", defaultTxPerDayLow),
			TxPerDayMedium: parseFloatWithDefault("GENERATOR_TX_PER_DAY_MEDIUM", defaultTxPerDayMed),
			TxPerDayHigh:   parseFloatWithDefault("GENERATOR_TX_PER_DAY_HIGH", defaultTxPerDayHigh),
			Workers:        parseIntWithDefault("GENERATOR_WORKERS", defaultWorkers),
		},
		Sanity: SanityConfig{
			MinFraudRate: parseFloatWithDefault("FRAUD_RATE_MIN", defaultMinFraudRate),
			MaxFraudRate: parseFloatWithDefault("FRAUD_RATE_MAX", defaultMaxFraudRate),
		},
		Database: DatabaseConfig{
			Host:     valueOrDefault("DB_HOST", defaultDBHost),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			SSLMode:  valueOrDefault("DB_SSLMODE", defaultDBSSLMode),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLogLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLogFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	port, err := parsePort("DB_PORT", defaultDBPort)
	if err != nil {
		return Config{}, err
	}
	cfg.Database.Port = port

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Generator.NumUsers <= 0 {
		return fmt.Errorf("GENERATOR_USERS must be positive, got %d", c.Generator.NumUsers)
	}
	if c.Generator.NumMerchants <= 0 {
		return fmt.Errorf("GENERATOR_MERCHANTS must be positive, got %d", c.Generator.NumMerchants)
	}
	if c.Generator.WindowDays <= 0 {
		return fmt.Errorf("GENERATOR_WINDOW_DAYS must be positive, got %d", c.Generator.WindowDays)
	}
	if c.Generator.TxPerDayLow <= 0 || c.Generator.TxPerDayMedium <= 0 || c.Generator.TxPerDayHigh <= 0 {
		return fmt.Errorf("transactions-per-day averages must be positive")
	}
	if c.Sanity.MinFraudRate < 0 || c.Sanity.MaxFraudRate > 1 || c.Sanity.MinFraudRate > c.Sanity.MaxFraudRate {
		return fmt.Errorf("fraud rate bounds [%v, %v] are not a valid range within [0,1]",
			c.Sanity.MinFraudRate, c.Sanity.MaxFraudRate)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
