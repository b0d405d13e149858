package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "namecheck/pkg/platform/strings"
)

// Session store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Server captures process configuration.
type Server struct {
	Addr     string
	LogLevel string

	Dispatcher DispatcherConfig
	Session    SessionConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Audit      AuditConfig

	// BankDirectoryPath overrides the embedded bank directory when set.
	BankDirectoryPath string
	Banks             []BankConfig
}

// DispatcherConfig tunes the verification race.
type DispatcherConfig struct {
	SubsetSize     int
	RoundTimeout   time.Duration
	WorkerPoolSize int
	// BreakerThreshold is the number of consecutive unavailable answers that
	// moves an adapter to the back of the first-round draw.
	BreakerThreshold int
}

// SessionConfig governs bank sessions and how they persist.
type SessionConfig struct {
	Freshness   time.Duration
	MaxAttempts int
	RateLimit   float64
	HTTPTimeout time.Duration
	Store       string
	Dir         string
	RedisTTL    time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	URL          string
	MaxOpenConns int
}

// AuditConfig selects the audit sink. Without brokers, events go to the log.
type AuditConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

// BankConfig is one bank login. Banks without a username are skipped.
type BankConfig struct {
	Bank          string
	Username      string
	Password      string
	AccountNumber string
	Proxy         string
	BaseURL       string
	IdentityURL   string
}

// bankPrefixes maps env prefixes to bank names.
var bankPrefixes = []struct{ prefix, bank string }{
	{"ACB", "ACB"},
	{"TCB", "Techcombank"},
}

// Load seeds the environment from .env files when present, then reads it.
func Load(files ...string) (Server, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:     getEnv("ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Dispatcher: DispatcherConfig{
			SubsetSize:       getEnvInt("CHECK_SUBSET_SIZE", 2),
			RoundTimeout:     getEnvDuration("CHECK_ROUND_TIMEOUT", 6*time.Second),
			WorkerPoolSize:   getEnvInt("WORKER_POOL_SIZE", 0),
			BreakerThreshold: getEnvInt("ADAPTER_BREAKER_THRESHOLD", 5),
		},
		Session: SessionConfig{
			Freshness:   getEnvDuration("SESSION_FRESHNESS", 300*time.Second),
			MaxAttempts: getEnvInt("LOOKUP_MAX_ATTEMPTS", 5),
			RateLimit:   getEnvFloat("ADAPTER_RATE_LIMIT", 0),
			HTTPTimeout: getEnvDuration("ADAPTER_HTTP_TIMEOUT", 15*time.Second),
			Store:       strings.ToLower(getEnv("SESSION_STORE", StoreFile)),
			Dir:         getEnv("SESSION_DIR", "./data/sessions"),
			RedisTTL:    getEnvDuration("SESSION_REDIS_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvInt("DATABASE_MAX_OPEN_CONNS", 5),
		},
		Audit: AuditConfig{
			Brokers:    pstrings.SplitList(getEnv("KAFKA_BROKERS", ""), ","),
			Topic:      getEnv("AUDIT_TOPIC", "namecheck.audit"),
			BufferSize: getEnvInt("AUDIT_BUFFER_SIZE", 1024),
		},
		BankDirectoryPath: getEnv("BANK_DIRECTORY_PATH", ""),
	}

	for _, b := range bankPrefixes {
		username := getEnv(b.prefix+"_USERNAME", "")
		if username == "" {
			continue
		}
		cfg.Banks = append(cfg.Banks, BankConfig{
			Bank:          b.bank,
			Username:      username,
			Password:      getEnv(b.prefix+"_PASSWORD", ""),
			AccountNumber: getEnv(b.prefix+"_ACCOUNT_NUMBER", ""),
			Proxy:         getEnv(b.prefix+"_PROXY", ""),
			BaseURL:       getEnv(b.prefix+"_BASE_URL", ""),
			IdentityURL:   getEnv(b.prefix+"_IDENTITY_URL", ""),
		})
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c Server) Validate() error {
	if c.Addr == "" {
		return errors.New("ADDR cannot be empty")
	}
	if c.Dispatcher.SubsetSize <= 0 {
		return errors.New("CHECK_SUBSET_SIZE must be > 0")
	}
	if c.Dispatcher.RoundTimeout <= 0 {
		return errors.New("CHECK_ROUND_TIMEOUT must be > 0")
	}
	if c.Session.Freshness <= 0 {
		return errors.New("SESSION_FRESHNESS must be > 0")
	}
	if c.Session.MaxAttempts <= 0 {
		return errors.New("LOOKUP_MAX_ATTEMPTS must be > 0")
	}
	switch c.Session.Store {
	case StoreMemory:
	case StoreFile:
		if c.Session.Dir == "" {
			return errors.New("SESSION_DIR is required for the file session store")
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis session store")
		}
	case StorePostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres session store")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Session.Store)
	}
	for _, b := range c.Banks {
		if b.Password == "" || b.AccountNumber == "" {
			return fmt.Errorf("%s needs a password and an account number", b.Bank)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go durations ("6s") and bare seconds ("300").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
