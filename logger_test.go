package jwtstrategy

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapLogger(zap.New(core).Sugar())

	l.Debug("hidden")
	l.Info("hello", "kind", "callback")
	l.Warn("careful")
	l.Error("broken", "error", "boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, map[string]any{"kind": "callback"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Debug("hidden")
	l.Warn("authentication failed", "kind", "verification", "path", "/")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, map[string]any{
		"level":   "warn",
		"message": "authentication failed",
		"kind":    "verification",
		"path":    "/",
	}, entry)
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	base.SetLevel(logrus.InfoLevel)

	l := NewLogrusLogger(base)
	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Info("authentication succeeded", "method", "GET")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, map[string]any{
		"level":  "info",
		"msg":    "authentication succeeded",
		"method": "GET",
	}, entry)

	buf.Reset()
	base.SetLevel(logrus.DebugLevel)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want map[string]any
	}{
		{name: "empty", want: map[string]any{}},
		{name: "pairs", args: []any{"a", 1, "b", "two"}, want: map[string]any{"a": 1, "b": "two"}},
		{name: "dangling key", args: []any{"a", 1, "b"}, want: map[string]any{"a": 1, "!BADKEY": "b"}},
		{name: "non string key", args: []any{42, "x"}, want: map[string]any{"!BADKEY": 42}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fields(tc.args))
		})
	}
}

func TestStrategy_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newStrategy(t,
		func(context.Context, VerifyParams) (*user, error) { return &user{ID: "1"}, nil },
		WithLogger(NewZapLogger(zap.New(core).Sugar())),
	)
	host := &recordingHost[*user]{}
	s.host = host

	_, _ = s.Authenticate(context.Background(), bearerRequest(""), nil, baseOptions)
	_, _ = s.Authenticate(context.Background(), bearerRequest("garbage"), nil, baseOptions)
	_, _ = s.Authenticate(context.Background(), bearerRequest(signToken(t, map[string]any{"sub": "1"})), nil, baseOptions)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "no token found in request", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)

	assert.Equal(t, "authentication failed", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "verification", entries[1].ContextMap()["kind"])

	assert.Equal(t, "authentication succeeded", entries[2].Message)
	assert.Equal(t, "GET", entries[2].ContextMap()["method"])
}
