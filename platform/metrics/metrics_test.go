package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Inbound("text")
	r.Duplicate("event_id")
	r.Classifier("ok", time.Second)
	r.HardStop("loop")
	r.Notification("hot_lead", true)
	r.Reminder("sent")
	r.QuoteSubmitted()
}

func TestHandlerExposesCounters(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.Notification("low_confidence", false)
	r.HardStop("turn_limit")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `matveypt_operator_notifications_total{status="failed",trigger="low_confidence"} 1`) {
		t.Fatalf("expected notification counter in output, got:\n%s", body)
	}
	if !strings.Contains(body, `matveypt_hard_stops_total{reason="turn_limit"} 1`) {
		t.Fatalf("expected hard stop counter in output")
	}
}
