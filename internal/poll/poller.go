package poll

import (
	"sync"
	"time"
)

// Poller re-invokes a view's data loader at a fixed cadence while the view
// is mounted. This is the client's only approximation of real-time updates.
//
// Known limitation, kept on purpose: there is no backoff, no jitter and no
// pause when the view is not visible. Reloads are fired and forgotten, so
// overlapping reloads are possible and the latest resolved snapshot wins;
// the transport carries no sequence numbers to order them.
type Poller struct {
	interval time.Duration
	reload   func()

	mu      sync.Mutex
	stop    chan struct{}
	started bool
}

func New(interval time.Duration, reload func()) *Poller {
	return &Poller{interval: interval, reload: reload}
}

// Start begins ticking. Calling Start on a running poller is a no-op, so a
// view mount starts exactly one timer.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stop = make(chan struct{})

	go p.run(p.stop)
}

func (p *Poller) run(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Re-check so a tick racing Stop never fires a reload for a
			// torn-down view.
			select {
			case <-stop:
				return
			default:
			}
			go p.reload()
		}
	}
}

// Stop cancels the timer unconditionally. Safe to call on a poller that was
// never started or is already stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stop)
}
