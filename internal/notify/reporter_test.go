package notify

import (
	"errors"
	"testing"
	"time"

	"bizarre-client/pkg/logger"
)

func init() {
	logger.InitLogger("release")
}

func TestReportThenAutoClear(t *testing.T) {
	r := NewReporterTTL(20 * time.Millisecond)

	r.Report(errors.New("boom"))
	if r.Current() == nil {
		t.Fatal("error should be visible right after report")
	}

	deadline := time.After(500 * time.Millisecond)
	for r.Current() != nil {
		select {
		case <-deadline:
			t.Fatal("error never cleared")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSecondReportReplacesAndRestartsDelay(t *testing.T) {
	r := NewReporterTTL(40 * time.Millisecond)

	first := errors.New("first")
	second := errors.New("second")

	r.Report(first)
	time.Sleep(25 * time.Millisecond)
	r.Report(second)

	// The first report's delay would have expired here; the second must
	// still be visible because its own delay restarted.
	time.Sleep(25 * time.Millisecond)
	if got := r.Current(); got != second {
		t.Fatalf("expected second error still visible, got %v", got)
	}

	deadline := time.After(500 * time.Millisecond)
	for r.Current() != nil {
		select {
		case <-deadline:
			t.Fatal("second error never cleared")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestReportNilIsIgnored(t *testing.T) {
	r := NewReporterTTL(20 * time.Millisecond)
	r.Report(nil)
	if r.Current() != nil {
		t.Fatal("nil report must not surface anything")
	}
}
