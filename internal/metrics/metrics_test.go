package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Upload("session", "ok")
	m.Upload("session", "ok")
	m.CacheMiss()
	m.EmbedFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("session", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.embedFailures))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docuchat_uploads_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Upload("corpus", "error")
		m.Chat("corpus", "ok")
		m.CacheHit()
		m.FallbackWrite()
		m.EmbedFailure()
	})
}
