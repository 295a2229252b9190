package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"beliefd/internal/engine"
)

// TestMetricsMiddleware_LabelsByRouteAndStatus drives the real mux and checks
// that failures are counted under their route pattern and status code.
func TestMetricsMiddleware_LabelsByRouteAndStatus(t *testing.T) {
	h := NewMux(&mockService{health: engine.Health{Status: engine.HealthUnhealthy, Code: http.StatusServiceUnavailable}})

	bad := httpRequestsTotal.WithLabelValues("/summaries", http.MethodPost, "422")
	unhealthy := httpRequestsTotal.WithLabelValues("/health", http.MethodGet, "503")
	badBefore, unhealthyBefore := testutil.ToFloat64(bad), testutil.ToFloat64(unhealthy)

	w := postJSON(t, h, "/summaries", `{"intents":[{"target":{"name":"X"}}]}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("/summaries status=%d want 422 body=%s", w.Code, w.Body.String())
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("/health status=%d want 503", rr.Code)
	}

	if got := testutil.ToFloat64(bad); got != badBefore+1 {
		t.Fatalf("summaries 422 counter=%v want %v", got, badBefore+1)
	}
	if got := testutil.ToFloat64(unhealthy); got != unhealthyBefore+1 {
		t.Fatalf("health 503 counter=%v want %v", got, unhealthyBefore+1)
	}
}

func TestMetricsEndpoint_ExposesBeliefdFamilies(t *testing.T) {
	h := NewMux(&mockService{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	mrr := httptest.NewRecorder()
	h.ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	body := mrr.Body.Bytes()
	for _, name := range []string{"beliefd_http_requests_total", "beliefd_http_request_duration_seconds"} {
		if !bytes.Contains(body, []byte(name)) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
