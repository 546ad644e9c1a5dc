package notify

import (
	"sync"
	"time"

	"bizarre-client/pkg/logger"

	"go.uber.org/zap"
)

// DefaultTTL is how long a reported error stays visible before it clears
// itself.
const DefaultTTL = 5 * time.Second

// Reporter is the transient error surface fed by failed mutations. The
// latest report wins: a second Report before expiry replaces the previous
// error and restarts the clearance delay. Rendering is a passive read of
// Current and never blocks anything.
type Reporter struct {
	mu    sync.Mutex
	ttl   time.Duration
	err   error
	timer *time.Timer
	seq   int
}

func NewReporter() *Reporter {
	return &Reporter{ttl: DefaultTTL}
}

// NewReporterTTL exists for tests that cannot wait five seconds.
func NewReporterTTL(ttl time.Duration) *Reporter {
	return &Reporter{ttl: ttl}
}

func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Log.Warn("mutation failed", zap.Error(err))

	r.err = err
	r.seq++
	seq := r.seq

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.ttl, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Only the report that armed this timer may clear the surface.
		if r.seq == seq {
			r.err = nil
		}
	})
}

// Current returns the live error, or nil when the surface is clear.
func (r *Reporter) Current() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
