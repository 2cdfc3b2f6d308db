package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-jwt-strategy/backend"
	"github.com/auth0/go-jwt-strategy/verifier"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_STRATEGY_SECRET", "s3cr3t")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "s3cr3t", cfg.Secret)
		assert.Equal(t, []verifier.SignatureAlgorithm{verifier.HS256}, cfg.SignatureAlgorithms())
		assert.Equal(t, backend.JWTGo, cfg.Backend())
		assert.Equal(t, logrus.InfoLevel, cfg.Level())
		assert.Equal(t, ":3000", cfg.ListenAddr)
		assert.Equal(t, "_session", cfg.SessionCookie)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		assert.Zero(t, cfg.Leeway)
		assert.False(t, cfg.Sessions())
	})

	t.Run("everything set", func(t *testing.T) {
		t.Setenv("JWT_STRATEGY_SECRET", "s3cr3t")
		t.Setenv("JWT_STRATEGY_ALGORITHMS", "HS256;HS512")
		t.Setenv("JWT_STRATEGY_VERIFIER", "jwx")
		t.Setenv("JWT_STRATEGY_LEEWAY", "30s")
		t.Setenv("JWT_STRATEGY_LOG_LEVEL", "debug")
		t.Setenv("JWT_STRATEGY_LISTEN_ADDR", "127.0.0.1:8080")
		t.Setenv("JWT_STRATEGY_REDIS_ADDR", "localhost:6379")
		t.Setenv("JWT_STRATEGY_SESSION_COOKIE", "sid")
		t.Setenv("JWT_STRATEGY_SESSION_TTL", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []verifier.SignatureAlgorithm{verifier.HS256, verifier.HS512}, cfg.SignatureAlgorithms())
		assert.Equal(t, backend.JWX, cfg.Backend())
		assert.Equal(t, 30*time.Second, cfg.Leeway)
		assert.Equal(t, logrus.DebugLevel, cfg.Level())
		assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
		assert.True(t, cfg.Sessions())
		assert.Equal(t, "sid", cfg.SessionCookie)
		assert.Equal(t, time.Hour, cfg.SessionTTL)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing secret",
			env:     map[string]string{"JWT_STRATEGY_VERIFIER": "jwtgo"},
			wantErr: "JWT_STRATEGY_SECRET",
		},
		{
			name:    "blank secret",
			env:     map[string]string{"JWT_STRATEGY_SECRET": "  "},
			wantErr: "JWT_STRATEGY_SECRET cannot be blank",
		},
		{
			name:    "unsupported algorithm",
			env:     map[string]string{"JWT_STRATEGY_SECRET": "s", "JWT_STRATEGY_ALGORITHMS": "none"},
			wantErr: "JWT_STRATEGY_ALGORITHMS",
		},
		{
			name:    "unknown verifier",
			env:     map[string]string{"JWT_STRATEGY_SECRET": "s", "JWT_STRATEGY_VERIFIER": "jose"},
			wantErr: `JWT_STRATEGY_VERIFIER: unknown verifier backend "jose"`,
		},
		{
			name:    "unknown log level",
			env:     map[string]string{"JWT_STRATEGY_SECRET": "s", "JWT_STRATEGY_LOG_LEVEL": "loud"},
			wantErr: "JWT_STRATEGY_LOG_LEVEL",
		},
		{
			name:    "negative leeway",
			env:     map[string]string{"JWT_STRATEGY_SECRET": "s", "JWT_STRATEGY_LEEWAY": "-1s"},
			wantErr: "JWT_STRATEGY_LEEWAY cannot be negative: -1s",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_STRATEGY_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
