package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.DebugLevel,
		Output: io.Discard,
	})
}

func TestHTTPMiddlewareDisabledPassesThrough(t *testing.T) {
	m := NewMetrics(false, false, newTestLogger())

	handler := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	m := NewMetrics(true, false, newTestLogger())

	handler := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.TotalHTTPRequestsCounter))
	require.Contains(t, m.HTTPRequestsCounters, http.StatusTeapot)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.HTTPRequestsCounters[http.StatusTeapot]))
}

func TestIncrementHTTPResponseCounterConcurrent(t *testing.T) {
	m := NewMetrics(true, false, newTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.IncrementHTTPResponseCounter(200 + n%5)
		}(i)
	}
	wg.Wait()

	var total float64
	for _, c := range m.HTTPRequestsCounters {
		total += testutil.ToFloat64(c)
	}
	assert.Equal(t, float64(50), total)
}
