package verifier

import (
	"context"
	"testing"
	"time"

	jwtsign "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetricsWithRegisterer(registry)

	metrics.IncCounter(MetricCacheHit, nil)
	metrics.IncCounter(MetricCacheHit, nil)
	metrics.IncCounter(MetricVerifyFailure, map[string]string{"reason": "expired"})
	metrics.ObserveHistogram(MetricVerifyDuration, 0.005, nil)
	metrics.SetGauge(MetricCacheSize, 42, nil)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, family := range families {
		name := family.GetName()
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				byName[name] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				byName[name] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, float64(2), byName[MetricCacheHit])
	assert.Equal(t, float64(1), byName[MetricVerifyFailure])
	assert.Equal(t, float64(42), byName[MetricCacheSize])
}

func TestVerifierEmitsMetrics(t *testing.T) {
	iss := newTestIssuer(t)
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetricsWithRegisterer(registry)

	v := newLocalCertVerifier(t, iss, nil, WithMetrics(metrics))
	token := signToken(t, iss, jwtsign.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	ctx := context.Background()
	_, err := v.Verify(ctx, token, false, UsageToken)
	require.NoError(t, err)
	_, err = v.Verify(ctx, token, false, UsageToken)
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names[MetricCacheMiss])
	assert.True(t, names[MetricCacheHit])
	assert.True(t, names[MetricVerifyDuration])
}
