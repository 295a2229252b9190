package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"beliefd/internal/engine"
)

func TestWriteError_TooBusyCountsAdmissionBackpressure(t *testing.T) {
	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("admission"))
	rr := httptest.NewRecorder()
	if status := writeError(rr, engine.ErrTooBusy(2*time.Second)); status != http.StatusTooManyRequests {
		t.Fatalf("status=%d want 429", status)
	}
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("recorded code=%d want 429", rr.Code)
	}
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("admission")); got != before+1 {
		t.Fatalf("admission backpressure=%v want %v", got, before+1)
	}
}

func TestWriteError_Other429DoesNotCountAdmission(t *testing.T) {
	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("admission"))
	rr := httptest.NewRecorder()
	writeError(rr, mockHTTPError{code: http.StatusTooManyRequests, msg: "upstream rate limit"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("code=%d want 429", rr.Code)
	}
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("admission")); got != before {
		t.Fatalf("admission backpressure moved: %v -> %v", before, got)
	}
	writeError(httptest.NewRecorder(), errors.New("boom"))
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("admission")); got != before {
		t.Fatalf("500 must not count as backpressure: %v -> %v", before, got)
	}
}

func TestIncrementBackpressure_EmptyReasonIsUnspecified(t *testing.T) {
	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	IncrementBackpressure("")
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified")); got != before+1 {
		t.Fatalf("unspecified=%v want %v", got, before+1)
	}
}

func TestSummarize_CountsGroupsPerKind(t *testing.T) {
	intentsBefore := testutil.ToFloat64(summaryGroupsTotal.WithLabelValues("intents"))
	collectsBefore := testutil.ToFloat64(summaryGroupsTotal.WithLabelValues("collect_requests"))

	intents := readTestdata(t, "intents.json")
	if _, err := summarize([]byte(intents), nil); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got := testutil.ToFloat64(summaryGroupsTotal.WithLabelValues("intents")); got != intentsBefore+2 {
		t.Fatalf("intents groups=%v want %v", got, intentsBefore+2)
	}
	if got := testutil.ToFloat64(summaryGroupsTotal.WithLabelValues("collect_requests")); got != collectsBefore {
		t.Fatalf("collect_requests groups moved without input: %v -> %v", collectsBefore, got)
	}
}
