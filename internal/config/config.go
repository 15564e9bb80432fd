package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the console
type Config struct {
	API    APIConfig
	UI     UIConfig
	Redis  RedisConfig
	Logger LoggerConfig
}

// APIConfig holds configuration for the backend REST API
type APIConfig struct {
	BaseURL        string `mapstructure:"API_BASE_URL"`
	TimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"` // 0 disables the client timeout
}

// UIConfig holds configuration for the list, search and export screens
type UIConfig struct {
	PageSize          int64  `mapstructure:"PAGE_SIZE"`
	SearchDebounceMS  int    `mapstructure:"SEARCH_DEBOUNCE_MS"`
	ResetPageOnSearch bool   `mapstructure:"RESET_PAGE_ON_SEARCH"`
	ExportDir         string `mapstructure:"EXPORT_DIR"`
}

// RedisConfig holds configuration for the optional user-options cache
type RedisConfig struct {
	Enabled     bool   `mapstructure:"REDIS_ENABLED"`
	Host        string `mapstructure:"REDIS_HOST"`
	Port        string `mapstructure:"REDIS_PORT"`
	Password    string `mapstructure:"REDIS_PASSWORD"`
	DB          int    `mapstructure:"REDIS_DB"`
	CacheTTL    int    `mapstructure:"USER_OPTIONS_TTL_SECONDS"`
	MaxRetries  int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize    int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level          string `mapstructure:"LOG_LEVEL"`
	Format         string `mapstructure:"LOG_FORMAT"`
	OutputPath     string `mapstructure:"LOG_OUTPUT_PATH"`
	EnableSampling bool   `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName    string `mapstructure:"SERVICE_NAME"`
	ServiceVersion string `mapstructure:"SERVICE_VERSION"`
	Environment    string `mapstructure:"APP_ENV"`
}

// LoadConfig reads configuration from app.env in path and the environment.
// Environment variables win over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.API.BaseURL = strings.TrimRight(v.GetString("API_BASE_URL"), "/")
	config.API.TimeoutSeconds = v.GetInt("HTTP_TIMEOUT_SECONDS")

	config.UI.PageSize = v.GetInt64("PAGE_SIZE")
	config.UI.SearchDebounceMS = v.GetInt("SEARCH_DEBOUNCE_MS")
	config.UI.ResetPageOnSearch = v.GetBool("RESET_PAGE_ON_SEARCH")
	config.UI.ExportDir = v.GetString("EXPORT_DIR")

	config.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.CacheTTL = v.GetInt("USER_OPTIONS_TTL_SECONDS")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")
	config.Logger.Environment = v.GetString("APP_ENV")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", "http://localhost:5000")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 0)

	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("SEARCH_DEBOUNCE_MS", 300)
	v.SetDefault("RESET_PAGE_ON_SEARCH", false)
	v.SetDefault("EXPORT_DIR", ".")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("USER_OPTIONS_TTL_SECONDS", 60)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 4)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 1)

	v.SetDefault("APP_ENV", "development")

	// Logger defaults
	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "warn")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stderr")
	v.SetDefault("SERVICE_NAME", "user-order-console")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks the loaded configuration for values the console cannot run with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT_SECONDS must not be negative"))
	}
	if c.UI.PageSize < 1 || c.UI.PageSize > 100 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.UI.PageSize))
	}
	if c.UI.SearchDebounceMS < 0 {
		errs = append(errs, errors.New("SEARCH_DEBOUNCE_MS must not be negative"))
	}
	if c.Redis.Enabled && c.Redis.CacheTTL <= 0 {
		errs = append(errs, errors.New("USER_OPTIONS_TTL_SECONDS must be positive when REDIS_ENABLED is set"))
	}

	return errors.Join(errs...)
}

// Timeout returns the HTTP client timeout; zero means no timeout.
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SearchDebounce returns the search input debounce delay.
func (c *UIConfig) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// UserOptionsTTL returns how long cached user options stay valid.
func (c *RedisConfig) UserOptionsTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Addr returns the host:port Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
