package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector()

	c.RecordQuote("owner", "ok")
	c.RecordQuote("owner", "ok")
	c.RecordQuote("renter", "invalid")
	c.RecordStay(10, []string{"check_in_moved", "nights_extended"})
	c.RecordStay(7, nil)
	c.RecordSkipped("kauai", 2)
	c.RecordSkipped("kauai", 0)
	c.SetResorts(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.quotesTotal.WithLabelValues("owner", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.quotesTotal.WithLabelValues("renter", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.adjustmentsTotal.WithLabelValues("nights_extended")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.roomTypesSkipped.WithLabelValues("kauai")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.resortsLoaded))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	// Two collectors must not clash on registration
	a, b := NewCollector(), NewCollector()
	a.SetResorts(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.resortsLoaded))
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	c := NewCollector()

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/resorts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Method(http.MethodGet, "/metrics", c.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/resorts/kauai", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `stay_http_request_duration_seconds_count{method="GET",route="/api/resorts/{id}",status="418"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
