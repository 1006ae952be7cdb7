package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all bridge configuration
type Config struct {
	App    AppConfig
	Log    LogConfig
	Remote RemoteConfig
	Erp    ErpConfig
	Bridge BridgeConfig
	Dedup  DedupConfig
	Redis  RedisConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RemoteConfig holds cloud order API connection settings
type RemoteConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	PageSize int
}

// ErpConfig holds ERP gateway settings. Mode selects the adapter:
// "sql" talks to the ERP database directly, "http" goes through the
// on-premise proxy service.
type ErpConfig struct {
	Mode     string
	Database ErpDatabaseConfig
	Proxy    ErpProxyConfig
}

// ErpDatabaseConfig holds ERP database connection settings (sql mode)
type ErpDatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// ErpProxyConfig holds ERP proxy service settings (http mode)
type ErpProxyConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BridgeConfig holds synchronization loop settings
type BridgeConfig struct {
	PollInterval      time.Duration
	OrdersEnabled     bool
	MaxAttempts       int
	BackoffSchedule   []time.Duration
	ProductsInterval  time.Duration
	ProductsEnabled   bool
	CustomersInterval time.Duration
	CustomersEnabled  bool
}

// DedupConfig holds processed-order deduplication settings
type DedupConfig struct {
	Backend string // memory, redis
	TTL     time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BRIDGE_ prefix (e.g., BRIDGE_ERP_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	backoff, err := parseBackoffSchedule(v.GetStringSlice("bridge.backoff_schedule"))
	if err != nil {
		return nil, err
	}

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Remote: RemoteConfig{
			BaseURL:  v.GetString("remote.base_url"),
			APIToken: v.GetString("remote.api_token"),
			Timeout:  v.GetDuration("remote.timeout"),
			PageSize: v.GetInt("remote.page_size"),
		},
		Erp: ErpConfig{
			Mode: v.GetString("erp.mode"),
			Database: ErpDatabaseConfig{
				Host:            v.GetString("erp.database.host"),
				Port:            v.GetInt("erp.database.port"),
				User:            v.GetString("erp.database.user"),
				Password:        v.GetString("erp.database.password"),
				DBName:          v.GetString("erp.database.dbname"),
				SSLMode:         v.GetString("erp.database.sslmode"),
				MaxOpenConns:    v.GetInt("erp.database.max_open_conns"),
				MaxIdleConns:    v.GetInt("erp.database.max_idle_conns"),
				ConnMaxLifetime: v.GetInt("erp.database.conn_max_lifetime"),
				ConnMaxIdleTime: v.GetInt("erp.database.conn_max_idle_time"),
			},
			Proxy: ErpProxyConfig{
				BaseURL: v.GetString("erp.proxy.base_url"),
				APIKey:  v.GetString("erp.proxy.api_key"),
				Timeout: v.GetDuration("erp.proxy.timeout"),
			},
		},
		Bridge: BridgeConfig{
			PollInterval:      v.GetDuration("bridge.poll_interval"),
			OrdersEnabled:     getBoolDefault(v, "bridge.orders_enabled", true),
			MaxAttempts:       v.GetInt("bridge.max_attempts"),
			BackoffSchedule:   backoff,
			ProductsInterval:  v.GetDuration("bridge.products_interval"),
			ProductsEnabled:   getBoolDefault(v, "bridge.products_enabled", true),
			CustomersInterval: v.GetDuration("bridge.customers_interval"),
			CustomersEnabled:  getBoolDefault(v, "bridge.customers_enabled", true),
		},
		Dedup: DedupConfig{
			Backend: v.GetString("dedup.backend"),
			TTL:     v.GetDuration("dedup.ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getBoolDefault returns the configured bool, or def when the key is unset.
// viper.GetBool cannot distinguish "false" from "missing".
func getBoolDefault(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}

// parseBackoffSchedule converts duration strings like "2s" into durations
func parseBackoffSchedule(raw []string) ([]time.Duration, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	schedule := make([]time.Duration, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bridge.backoff_schedule entry %q: %w", s, err)
		}
		schedule = append(schedule, d)
	}
	return schedule, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-sync-bridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Remote.PageSize == 0 {
		cfg.Remote.PageSize = 100
	}
	if cfg.Erp.Mode == "" {
		cfg.Erp.Mode = "sql"
	}
	if cfg.Erp.Database.Host == "" {
		cfg.Erp.Database.Host = "localhost"
	}
	if cfg.Erp.Database.Port == 0 {
		cfg.Erp.Database.Port = 5432
	}
	if cfg.Erp.Database.User == "" {
		cfg.Erp.Database.User = "postgres"
	}
	if cfg.Erp.Database.DBName == "" {
		cfg.Erp.Database.DBName = "erp"
	}
	if cfg.Erp.Database.SSLMode == "" {
		cfg.Erp.Database.SSLMode = "disable"
	}
	if cfg.Erp.Database.MaxOpenConns == 0 {
		cfg.Erp.Database.MaxOpenConns = 10
	}
	if cfg.Erp.Database.MaxIdleConns == 0 {
		cfg.Erp.Database.MaxIdleConns = 2
	}
	if cfg.Erp.Database.ConnMaxLifetime == 0 {
		cfg.Erp.Database.ConnMaxLifetime = 60
	}
	if cfg.Erp.Database.ConnMaxIdleTime == 0 {
		cfg.Erp.Database.ConnMaxIdleTime = 30
	}
	if cfg.Erp.Proxy.Timeout == 0 {
		cfg.Erp.Proxy.Timeout = 30 * time.Second
	}
	if cfg.Bridge.PollInterval == 0 {
		cfg.Bridge.PollInterval = 30 * time.Second
	}
	if cfg.Bridge.MaxAttempts == 0 {
		cfg.Bridge.MaxAttempts = 3
	}
	if len(cfg.Bridge.BackoffSchedule) == 0 {
		cfg.Bridge.BackoffSchedule = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}
	}
	if cfg.Bridge.ProductsInterval == 0 {
		cfg.Bridge.ProductsInterval = 15 * time.Minute
	}
	if cfg.Bridge.CustomersInterval == 0 {
		cfg.Bridge.CustomersInterval = 30 * time.Minute
	}
	if cfg.Dedup.Backend == "" {
		cfg.Dedup.Backend = "memory"
	}
	if cfg.Dedup.TTL == 0 {
		cfg.Dedup.TTL = 24 * time.Hour
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if c.Remote.PageSize <= 0 {
		return fmt.Errorf("remote.page_size must be positive")
	}

	switch c.Erp.Mode {
	case "sql":
		if c.Erp.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("erp.database.max_open_conns must be positive")
		}
		if c.Erp.Database.MaxIdleConns < 0 {
			return fmt.Errorf("erp.database.max_idle_conns cannot be negative")
		}
		if c.Erp.Database.MaxIdleConns > c.Erp.Database.MaxOpenConns {
			return fmt.Errorf("erp.database.max_idle_conns (%d) cannot exceed erp.database.max_open_conns (%d)",
				c.Erp.Database.MaxIdleConns, c.Erp.Database.MaxOpenConns)
		}
	case "http":
		if c.Erp.Proxy.BaseURL == "" {
			return fmt.Errorf("erp.proxy.base_url is required when erp.mode is 'http'")
		}
	default:
		return fmt.Errorf("erp.mode must be 'sql' or 'http', got %q", c.Erp.Mode)
	}

	if c.Bridge.MaxAttempts < 1 {
		return fmt.Errorf("bridge.max_attempts must be at least 1")
	}
	var prev time.Duration
	for i, d := range c.Bridge.BackoffSchedule {
		if d <= 0 {
			return fmt.Errorf("bridge.backoff_schedule entries must be positive")
		}
		if i > 0 && d < prev {
			return fmt.Errorf("bridge.backoff_schedule must be non-decreasing")
		}
		prev = d
	}

	if c.Dedup.Backend != "memory" && c.Dedup.Backend != "redis" {
		return fmt.Errorf("dedup.backend must be 'memory' or 'redis', got %q", c.Dedup.Backend)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Remote.APIToken == "" {
			return fmt.Errorf("remote.api_token is required in production")
		}
		if c.Erp.Mode == "sql" {
			if c.Erp.Database.Password == "" {
				return fmt.Errorf("erp.database.password is required in production")
			}
			if c.Erp.Database.SSLMode == "disable" {
				return fmt.Errorf("erp.database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Erp.Mode == "http" && c.Erp.Proxy.APIKey == "" {
			return fmt.Errorf("erp.proxy.api_key is required in production")
		}
	}

	return nil
}

// DSN returns the ERP database connection string with properly escaped values
func (d *ErpDatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
