package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abyan-ai/askme/pkg/models"
)

func TestRecorderCounters(t *testing.T) {
	m := New()

	m.ChatResult("")
	m.ChatResult("")
	m.ChatResult(models.CodeRateLimited)
	m.RateLimitRejected()
	m.RateLimitFault()
	m.RateLimitFault()
	m.BackendDuration(120 * time.Millisecond)
	m.ScrapeResult("github", "not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.chatResults.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatResults.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitRejects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimitFaults))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scrapeRequests.WithLabelValues("github", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.backendDuration))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/scrape/github/{user}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	for _, path := range []string{"/api/scrape/github/a", "/api/scrape/github/b", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/scrape/github/{user}", "GET", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/healthz", "GET", "200")))
}

func TestHandlerExposesTrackedKeys(t *testing.T) {
	m := New()
	m.TrackKeys(func() int { return 7 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "askme_ratelimit_tracked_keys 7")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
