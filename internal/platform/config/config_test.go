package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 2, cfg.Dispatcher.SubsetSize)
	assert.Equal(t, 6*time.Second, cfg.Dispatcher.RoundTimeout)
	assert.Equal(t, 300*time.Second, cfg.Session.Freshness)
	assert.Equal(t, 5, cfg.Session.MaxAttempts)
	assert.Equal(t, StoreFile, cfg.Session.Store)
	assert.Empty(t, cfg.Audit.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CHECK_SUBSET_SIZE", "3")
	t.Setenv("CHECK_ROUND_TIMEOUT", "4s")
	t.Setenv("SESSION_FRESHNESS", "120")
	t.Setenv("ADAPTER_RATE_LIMIT", "2.5")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ACB_USERNAME", "acb-user")
	t.Setenv("ACB_PASSWORD", "secret")
	t.Setenv("ACB_ACCOUNT_NUMBER", "123")
	t.Setenv("ACB_PROXY", "10.0.0.1:1080")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Dispatcher.SubsetSize)
	assert.Equal(t, 4*time.Second, cfg.Dispatcher.RoundTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Session.Freshness)
	assert.Equal(t, 2.5, cfg.Session.RateLimit)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.Brokers)
	require.Len(t, cfg.Banks, 1)
	assert.Equal(t, BankConfig{
		Bank:          "ACB",
		Username:      "acb-user",
		Password:      "secret",
		AccountNumber: "123",
		Proxy:         "10.0.0.1:1080",
	}, cfg.Banks[0])
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"zero subset":            {"CHECK_SUBSET_SIZE": "0"},
		"unknown store":          {"SESSION_STORE": "etcd"},
		"redis without url":      {"SESSION_STORE": "redis"},
		"postgres without url":   {"SESSION_STORE": "postgres"},
		"bank without password":  {"TCB_USERNAME": "u", "TCB_ACCOUNT_NUMBER": "1"},
		"non-positive freshness": {"SESSION_FRESHNESS": "-1s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHECK_SUBSET_SIZE=4\n"), 0o600))
	t.Setenv("CHECK_SUBSET_SIZE", "")
	require.NoError(t, os.Unsetenv("CHECK_SUBSET_SIZE"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Dispatcher.SubsetSize)
	require.NoError(t, os.Unsetenv("CHECK_SUBSET_SIZE"))
}

func TestLoadWithoutEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
