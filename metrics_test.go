package jwtstrategy

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		out[l.GetName()] = l.GetValue()
	}
	return out
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.IncCounter("requests_total", map[string]string{"outcome": "success"})
	m.IncCounter("requests_total", map[string]string{"outcome": "success"})
	m.IncCounter("requests_total", map[string]string{"outcome": "failure"})
	m.ObserveHistogram("latency_seconds", 0.25, map[string]string{"outcome": "success"})

	counters := gather(t, reg, "requests_total")
	require.Len(t, counters.GetMetric(), 2)
	got := map[string]float64{}
	for _, metric := range counters.GetMetric() {
		got[labels(metric)["outcome"]] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"success": 2, "failure": 1}, got)

	hist := gather(t, reg, "latency_seconds")
	require.Len(t, hist.GetMetric(), 1)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.25, hist.GetMetric()[0].GetHistogram().GetSampleSum(), 1e-9)
}

func TestPrometheusMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheusMetrics(reg)
	second := NewPrometheusMetrics(reg)

	first.IncCounter("shared_total", map[string]string{"outcome": "success"})
	assert.NotPanics(t, func() {
		second.IncCounter("shared_total", map[string]string{"outcome": "success"})
	})

	f := gather(t, reg, "shared_total")
	require.Len(t, f.GetMetric(), 1)
	assert.Equal(t, float64(2), f.GetMetric()[0].GetCounter().GetValue())
}

func TestStrategy_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newStrategy(t,
		func(context.Context, VerifyParams) (*user, error) { return &user{ID: "1"}, nil },
		WithMetrics(NewPrometheusMetrics(reg)),
	)
	s.host = &recordingHost[*user]{}

	_, _ = s.Authenticate(context.Background(), bearerRequest(""), nil, baseOptions)
	_, _ = s.Authenticate(context.Background(), bearerRequest(signToken(t, map[string]any{"sub": "1"})), nil, baseOptions)

	counters := gather(t, reg, MetricAuthenticationsTotal)
	got := map[string]float64{}
	for _, metric := range counters.GetMetric() {
		l := labels(metric)
		got[l["outcome"]+"/"+l["kind"]] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"failure/missing_token": 1,
		"success/none":          1,
	}, got)

	hist := gather(t, reg, MetricAuthenticationSecs)
	var samples uint64
	for _, metric := range hist.GetMetric() {
		samples += metric.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(2), samples)
}

func TestNoopMetrics(t *testing.T) {
	m := &NoopMetrics{}
	assert.NotPanics(t, func() {
		m.IncCounter("x", nil)
		m.ObserveHistogram("x", 1, nil)
	})
}
