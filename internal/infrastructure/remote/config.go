package remote

import (
	"errors"
	"time"
)

// Config holds configuration for the cloud order API client
type Config struct {
	// BaseURL is the base URL of the cloud order API
	BaseURL string
	// APIToken is the bearer token used to authenticate requests
	APIToken string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// PageSize is the maximum number of pending orders fetched per request
	PageSize int
}

// Errors for cloud API client configuration
var (
	ErrConfigMissingBaseURL = errors.New("remote: base URL is required")
	ErrConfigInvalidPage    = errors.New("remote: page size must be positive")
)

// NewConfig creates a client configuration with defaults
func NewConfig(baseURL, apiToken string) *Config {
	return &Config{
		BaseURL:  baseURL,
		APIToken: apiToken,
		Timeout:  30 * time.Second,
		PageSize: 100,
	}
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.PageSize <= 0 {
		return ErrConfigInvalidPage
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
