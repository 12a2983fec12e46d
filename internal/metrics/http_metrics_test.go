package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByPattern(t *testing.T) {
	m := NewHTTPMetrics("lawfirm-test")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /matters/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	for _, id := range []string{"a", "b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/matters/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("lawfirm-test", "GET", "GET /matters/{id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests under the route pattern, got %v", got)
	}
	if testutil.ToFloat64(m.category.WithLabelValues("lawfirm-test", "4xx")) != 2 {
		t.Fatalf("4xx category not counted")
	}
}

func TestHandlerExposesAuditCounter(t *testing.T) {
	m := NewHTTPMetrics("lawfirm-test")
	m.AuditRecorded("CONVERT")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `audit_entries_total{action="CONVERT",service="lawfirm-test"} 1`) {
		t.Fatalf("audit counter missing from exposition:\n%s", w.Body.String())
	}
}
