package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	h := m.Middleware("catalog", func(*http.Request) string { return "/products/{id}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/products/missing" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte("{}"))
		}),
	)

	for _, p := range []string{"/products/a", "/products/b", "/products/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("catalog", http.MethodGet, "/products/{id}", "200")); got != 2 {
		t.Fatalf("200 count=%v want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("catalog", http.MethodGet, "/products/{id}", "404")); got != 1 {
		t.Fatalf("404 count=%v want 1", got)
	}
	if got := testutil.ToFloat64(m.InFlight.WithLabelValues("catalog")); got != 0 {
		t.Fatalf("in flight=%v want 0", got)
	}
}
