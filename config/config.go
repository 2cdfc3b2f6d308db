// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/auth0/go-jwt-strategy/backend"
	"github.com/auth0/go-jwt-strategy/verifier"
)

// Config for a process serving the JWT strategy. ENV names are given in the
// struct tags; multiple algorithms are separated with ';'.
type Config struct {
	Secret        string        `env:"JWT_STRATEGY_SECRET,required"`
	Algorithms    []string      `env:"JWT_STRATEGY_ALGORITHMS,default=HS256"`
	Verifier      string        `env:"JWT_STRATEGY_VERIFIER,default=jwtgo"`
	Leeway        time.Duration `env:"JWT_STRATEGY_LEEWAY"`
	LogLevel      string        `env:"JWT_STRATEGY_LOG_LEVEL,default=info"`
	ListenAddr    string        `env:"JWT_STRATEGY_LISTEN_ADDR,default=:3000"`
	RedisAddr     string        `env:"JWT_STRATEGY_REDIS_ADDR"`
	SessionCookie string        `env:"JWT_STRATEGY_SESSION_COOKIE,default=_session"`
	SessionTTL    time.Duration `env:"JWT_STRATEGY_SESSION_TTL,default=24h"`

	algorithms []verifier.SignatureAlgorithm
	backend    backend.Kind
	level      logrus.Level
}

// Load decodes Config from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	if err := cfg.parse(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) parse() error {
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("JWT_STRATEGY_SECRET cannot be blank")
	}

	algs, err := verifier.ParseAlgorithms(c.Algorithms...)
	if err != nil {
		return fmt.Errorf("JWT_STRATEGY_ALGORITHMS: %w", err)
	}
	if len(algs) == 0 {
		return fmt.Errorf("JWT_STRATEGY_ALGORITHMS cannot be empty")
	}
	c.algorithms = algs

	if c.backend, err = backend.Parse(c.Verifier); err != nil {
		return fmt.Errorf("JWT_STRATEGY_VERIFIER: %w", err)
	}
	if c.level, err = logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("JWT_STRATEGY_LOG_LEVEL: %w", err)
	}
	if c.Leeway < 0 {
		return fmt.Errorf("JWT_STRATEGY_LEEWAY cannot be negative: %s", c.Leeway)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("JWT_STRATEGY_SESSION_TTL cannot be negative: %s", c.SessionTTL)
	}
	return nil
}

// SignatureAlgorithms returns the parsed JWT_STRATEGY_ALGORITHMS.
func (c *Config) SignatureAlgorithms() []verifier.SignatureAlgorithm {
	return append([]verifier.SignatureAlgorithm(nil), c.algorithms...)
}

// Backend returns the parsed JWT_STRATEGY_VERIFIER.
func (c *Config) Backend() backend.Kind { return c.backend }

// Level returns the parsed JWT_STRATEGY_LOG_LEVEL.
func (c *Config) Level() logrus.Level { return c.level }

// Sessions reports whether sessions are backed by Redis.
func (c *Config) Sessions() bool { return c.RedisAddr != "" }
