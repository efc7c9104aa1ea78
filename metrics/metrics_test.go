package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/acc-agent/metrics"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Turn(nil, time.Second)
	m.Turn(errors.New("x"), time.Second)
	m.Turn(nil, time.Second)
	m.Degraded("qualify")
	m.Rewrite("USER.md")
	m.Finalize(nil)
	m.ToolIterations(3)
	m.RateLimited()

	count, err := testutil.GatherAndCount(reg, "acc_turns_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, n := range []string{
		"acc_turns_total", "acc_turn_duration_seconds", "acc_tool_iterations",
		"acc_oracle_degraded_total", "acc_finalize_total", "acc_config_rewrites_total",
		"acc_rate_limited_total",
	} {
		assert.True(t, names[n], n)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Turn(nil, 0)
		m.ToolIterations(1)
		m.Degraded("x")
		m.Finalize(nil)
		m.Rewrite("x")
		m.RateLimited()
	})
}
