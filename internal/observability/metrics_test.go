package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/items/1", "/items/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	// Both requests land on one label set.
	count := testutil.ToFloat64(m.httpRequests.WithLabelValues("/items/{id}", "GET", "404"))
	require.Equal(t, 2.0, count)
}

func TestTrackJob(t *testing.T) {
	m := New()
	m.TrackJob("inventory:audit")(nil)
	m.TrackJob("inventory:audit")(errors.New("boom"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("inventory:audit", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("inventory:audit", "error")))
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	m.SetOverbookedItems(3)
	m.TrackJob("x")(nil)
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.SetOverbookedItems(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "erprent_overbooked_items 2")
}
