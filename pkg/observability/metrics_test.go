package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions(7)
	if got := testutil.ToFloat64(activeSessions); got != 7 {
		t.Errorf("expected gauge 7, got %v", got)
	}

	SetActiveSessions(0)
	if got := testutil.ToFloat64(activeSessions); got != 0 {
		t.Errorf("expected gauge 0, got %v", got)
	}
}

func TestRecordInterpretRequest_SeparatesStatusLabels(t *testing.T) {
	RecordInterpretRequest("OK", 10*time.Millisecond)
	RecordInterpretRequest("InvalidArgument", time.Millisecond)
	RecordInterpretRequest("Internal", time.Millisecond)

	// Client rejections and server errors land in distinct series.
	if got := testutil.ToFloat64(interpretRequestsTotal.WithLabelValues("InvalidArgument")); got < 1 {
		t.Errorf("expected InvalidArgument series, got %v", got)
	}
	if got := testutil.ToFloat64(interpretRequestsTotal.WithLabelValues("Internal")); got < 1 {
		t.Errorf("expected Internal series, got %v", got)
	}
	if got := testutil.ToFloat64(interpretRequestsTotal.WithLabelValues("OK")); got < 1 {
		t.Errorf("expected OK series, got %v", got)
	}
}

func TestRecordCacheEvent(t *testing.T) {
	RecordCacheEvent("hit")
	if got := testutil.ToFloat64(cacheEventsTotal.WithLabelValues("hit")); got < 1 {
		t.Errorf("expected hit series, got %v", got)
	}
}
