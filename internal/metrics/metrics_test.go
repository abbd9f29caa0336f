package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Build(t *testing.T) {
	m := New()

	m.BuildSucceeded(10, 2, 512, 5*time.Millisecond)
	m.BuildSucceeded(5, 0, 256, time.Millisecond)
	m.BuildFailed(ReasonTooLarge, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.payloads.WithLabelValues("ok", "")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.payloads.WithLabelValues("error", ReasonTooLarge)))
	assert.Equal(t, float64(15), testutil.ToFloat64(m.records))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.skipped))
}

func TestMetrics_ConfigReloaded(t *testing.T) {
	m := New()
	m.ConfigReloaded(true)
	m.ConfigReloaded(false)
	m.ConfigReloaded(false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloads.WithLabelValues("ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.reloads.WithLabelValues("error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.BuildSucceeded(1, 0, 100, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "log_payload_builds_total")
	assert.Contains(t, string(body), "log_payload_compressed_bytes_bucket")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.BuildSucceeded(3, 0, 10, time.Millisecond)

	assert.Equal(t, float64(3), testutil.ToFloat64(a.records))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.records))
	assert.NotSame(t, a.Registry(), b.Registry())
}
