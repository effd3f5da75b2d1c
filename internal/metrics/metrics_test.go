package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	// Reset metrics
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/v1/content", "201", 0.042)

	counter := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/content", "201"))
	if counter != 1.0 {
		t.Errorf("Expected counter to be 1.0, got %f", counter)
	}
}

func TestRecordContentCreated(t *testing.T) {
	ContentCreatedTotal.Reset()

	RecordContentCreated("twitter", "post")
	RecordContentCreated("twitter", "thread")
	RecordContentCreated("twitter", "post")

	posts := testutil.ToFloat64(ContentCreatedTotal.WithLabelValues("twitter", "post"))
	if posts != 2.0 {
		t.Errorf("Expected post counter to be 2.0, got %f", posts)
	}

	threads := testutil.ToFloat64(ContentCreatedTotal.WithLabelValues("twitter", "thread"))
	if threads != 1.0 {
		t.Errorf("Expected thread counter to be 1.0, got %f", threads)
	}
}

func TestRecordTaskAttempt(t *testing.T) {
	TaskAttemptsTotal.Reset()
	TaskExecutionDuration.Reset()

	RecordTaskAttempt("publish", true, 0.5)
	RecordTaskAttempt("publish", false, 1.2)
	RecordTaskAttempt("publish", true, 0.3)

	successes := testutil.ToFloat64(TaskAttemptsTotal.WithLabelValues("publish", "success"))
	if successes != 2.0 {
		t.Errorf("Expected success counter to be 2.0, got %f", successes)
	}

	failures := testutil.ToFloat64(TaskAttemptsTotal.WithLabelValues("publish", "failure"))
	if failures != 1.0 {
		t.Errorf("Expected failure counter to be 1.0, got %f", failures)
	}
}

func TestRecordContentTransition(t *testing.T) {
	ContentTransitionsTotal.Reset()

	RecordContentTransition("draft", "scheduled")
	RecordContentTransition("scheduled", "published")
	RecordContentTransition("draft", "scheduled")

	scheduled := testutil.ToFloat64(ContentTransitionsTotal.WithLabelValues("draft", "scheduled"))
	if scheduled != 2.0 {
		t.Errorf("Expected transition counter to be 2.0, got %f", scheduled)
	}
}

func TestRecordQuotaRejection(t *testing.T) {
	QuotaRejectionsTotal.Reset()

	RecordQuotaRejection("free", "generations")

	rejections := testutil.ToFloat64(QuotaRejectionsTotal.WithLabelValues("free", "generations"))
	if rejections != 1.0 {
		t.Errorf("Expected rejection counter to be 1.0, got %f", rejections)
	}
}

func TestRecordCacheAccess(t *testing.T) {
	CacheHitsTotal.Reset()
	CacheMissesTotal.Reset()

	RecordCacheAccess("session", true)
	RecordCacheAccess("session", true)
	RecordCacheAccess("session", false)

	hits := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("session"))
	if hits != 2.0 {
		t.Errorf("Expected hit counter to be 2.0, got %f", hits)
	}

	misses := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("session"))
	if misses != 1.0 {
		t.Errorf("Expected miss counter to be 1.0, got %f", misses)
	}
}
