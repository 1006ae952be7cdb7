package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"BRIDGE_APP_NAME":              os.Getenv("BRIDGE_APP_NAME"),
		"BRIDGE_APP_ENV":               os.Getenv("BRIDGE_APP_ENV"),
		"BRIDGE_REMOTE_BASE_URL":       os.Getenv("BRIDGE_REMOTE_BASE_URL"),
		"BRIDGE_REMOTE_API_TOKEN":      os.Getenv("BRIDGE_REMOTE_API_TOKEN"),
		"BRIDGE_REMOTE_PAGE_SIZE":      os.Getenv("BRIDGE_REMOTE_PAGE_SIZE"),
		"BRIDGE_ERP_MODE":              os.Getenv("BRIDGE_ERP_MODE"),
		"BRIDGE_ERP_DATABASE_HOST":     os.Getenv("BRIDGE_ERP_DATABASE_HOST"),
		"BRIDGE_ERP_DATABASE_PASSWORD": os.Getenv("BRIDGE_ERP_DATABASE_PASSWORD"),
		"BRIDGE_ERP_DATABASE_SSLMODE":  os.Getenv("BRIDGE_ERP_DATABASE_SSLMODE"),
		"BRIDGE_ERP_PROXY_BASE_URL":    os.Getenv("BRIDGE_ERP_PROXY_BASE_URL"),
		"BRIDGE_BRIDGE_POLL_INTERVAL":  os.Getenv("BRIDGE_BRIDGE_POLL_INTERVAL"),
		"BRIDGE_BRIDGE_MAX_ATTEMPTS":   os.Getenv("BRIDGE_BRIDGE_MAX_ATTEMPTS"),
		"BRIDGE_DEDUP_BACKEND":         os.Getenv("BRIDGE_DEDUP_BACKEND"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when only base_url is set", func(t *testing.T) {
		clearEnv()
		os.Setenv("BRIDGE_REMOTE_BASE_URL", "https://orders.example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-sync-bridge", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "https://orders.example.com", cfg.Remote.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
		assert.Equal(t, 100, cfg.Remote.PageSize)
		assert.Equal(t, "sql", cfg.Erp.Mode)
		assert.Equal(t, "localhost", cfg.Erp.Database.Host)
		assert.Equal(t, 5432, cfg.Erp.Database.Port)
		assert.Equal(t, 30*time.Second, cfg.Bridge.PollInterval)
		assert.Equal(t, 3, cfg.Bridge.MaxAttempts)
		assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}, cfg.Bridge.BackoffSchedule)
		assert.True(t, cfg.Bridge.OrdersEnabled)
		assert.True(t, cfg.Bridge.ProductsEnabled)
		assert.True(t, cfg.Bridge.CustomersEnabled)
		assert.Equal(t, "memory", cfg.Dedup.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Dedup.TTL)
	})

	t.Run("loads values from environment variables with BRIDGE prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("BRIDGE_REMOTE_BASE_URL", "https://api.cloud.test")
		os.Setenv("BRIDGE_APP_NAME", "test-bridge")
		os.Setenv("BRIDGE_APP_ENV", "testing")
		os.Setenv("BRIDGE_REMOTE_PAGE_SIZE", "25")
		os.Setenv("BRIDGE_ERP_DATABASE_HOST", "erpdb.local")
		os.Setenv("BRIDGE_BRIDGE_POLL_INTERVAL", "10s")
		os.Setenv("BRIDGE_BRIDGE_MAX_ATTEMPTS", "5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-bridge", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, 25, cfg.Remote.PageSize)
		assert.Equal(t, "erpdb.local", cfg.Erp.Database.Host)
		assert.Equal(t, 10*time.Second, cfg.Bridge.PollInterval)
		assert.Equal(t, 5, cfg.Bridge.MaxAttempts)
	})

	t.Run("fails when remote.base_url is missing", func(t *testing.T) {
		clearEnv()

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "remote.base_url")
	})

	t.Run("http mode requires proxy base_url", func(t *testing.T) {
		clearEnv()
		os.Setenv("BRIDGE_REMOTE_BASE_URL", "https://orders.example.com")
		os.Setenv("BRIDGE_ERP_MODE", "http")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "erp.proxy.base_url")

		os.Setenv("BRIDGE_ERP_PROXY_BASE_URL", "http://erp-proxy.local:8081")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http", cfg.Erp.Mode)
	})

	t.Run("rejects unknown erp mode", func(t *testing.T) {
		clearEnv()
		os.Setenv("BRIDGE_REMOTE_BASE_URL", "https://orders.example.com")
		os.Setenv("BRIDGE_ERP_MODE", "grpc")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "erp.mode")
	})

	t.Run("rejects unknown dedup backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("BRIDGE_REMOTE_BASE_URL", "https://orders.example.com")
		os.Setenv("BRIDGE_DEDUP_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dedup.backend")
	})

	t.Run("production requires api token and db password", func(t *testing.T) {
		clearEnv()
		os.Setenv("BRIDGE_REMOTE_BASE_URL", "https://orders.example.com")
		os.Setenv("BRIDGE_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "remote.api_token")

		os.Setenv("BRIDGE_REMOTE_API_TOKEN", "secret-token")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "erp.database.password")

		os.Setenv("BRIDGE_ERP_DATABASE_PASSWORD", "secret-pass")
		os.Setenv("BRIDGE_ERP_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestParseBackoffSchedule(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []time.Duration
		wantErr  bool
	}{
		{"empty", nil, nil, false},
		{"valid", []string{"2s", "5s", "10s"}, []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}, false},
		{"mixed units", []string{"500ms", "1m"}, []time.Duration{500 * time.Millisecond, time.Minute}, false},
		{"invalid entry", []string{"2s", "soon"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBackoffSchedule(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestErpDatabaseConfigDSN(t *testing.T) {
	d := &ErpDatabaseConfig{
		Host:     "erpdb.local",
		Port:     5433,
		User:     "bridge",
		Password: "p@ss:word/1",
		DBName:   "erp",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "erpdb.local:5433")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss:word/1")
}
