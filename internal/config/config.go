// Package config loads the runtime configuration: the token pool from the
// environment and the optional YAML settings file.
//
// Precedence, highest first: environment variables, the settings file,
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/naka-gawa/github-trophy/internal/gateway"
	"github.com/naka-gawa/github-trophy/internal/retry"
	"gopkg.in/yaml.v3"
)

// TokenEnvVars are the environment variables the token pool is read from, in pool order.
var TokenEnvVars = []string{"GITHUB_TOKEN1", "GITHUB_TOKEN2"}

// ErrTokenIndex is returned when an attempt index does not select a pool entry.
var ErrTokenIndex = errors.New("config: attempt index outside the token pool")

// TokenPool is the ordered, read-only set of credentials rotated across attempts.
type TokenPool struct {
	tokens []string
}

// NewTokenPool builds a pool from tokens, skipping blank entries.
func NewTokenPool(tokens ...string) TokenPool {
	pool := TokenPool{}
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			pool.tokens = append(pool.tokens, token)
		}
	}
	return pool
}

// Len is the number of tokens, which is also the number of attempts per query.
func (p TokenPool) Len() int {
	return len(p.tokens)
}

// At returns the token for the given attempt index.
func (p TokenPool) At(index int) (string, error) {
	if index < 0 || index >= len(p.tokens) {
		return "", fmt.Errorf("%w: index %d, pool size %d", ErrTokenIndex, index, len(p.tokens))
	}
	return p.tokens[index], nil
}

// Config is the complete runtime configuration.
type Config struct {
	Endpoint   string        `yaml:"endpoint"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Listen     string        `yaml:"listen"`

	Tokens TokenPool `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:   gateway.DefaultEndpoint,
		RetryDelay: retry.DefaultDelay,
		Listen:     ":8080",
	}
}

// Load builds the configuration. An empty path skips the settings file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative, got: %s", c.RetryDelay)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	tokens := make([]string, 0, len(TokenEnvVars))
	for _, name := range TokenEnvVars {
		tokens = append(tokens, os.Getenv(name))
	}
	cfg.Tokens = NewTokenPool(tokens...)

	if endpoint := os.Getenv("GITHUB_API"); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Listen = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}
}
