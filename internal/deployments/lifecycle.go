package deployments

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// DefaultTransitionDelay is how long a simulated deployment stays Creating.
const DefaultTransitionDelay = 3 * time.Second

// pendingTransition is one scheduled Creating -> Running flip.
type pendingTransition struct {
	mu    sync.Mutex
	timer clock.Timer
	done  bool
}

func (p *pendingTransition) setTimer(t clock.Timer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		t.Stop()
		return
	}
	p.timer = t
}

func (p *pendingTransition) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	if p.timer != nil {
		p.timer.Stop()
	}
}

// Lifecycle schedules the simulated provisioning transition of mock
// deployments. At most one transition is pending per key; cancelling a key
// guarantees its callback never runs.
type Lifecycle struct {
	clock clock.WithDelayedExecution
	delay time.Duration

	mu      sync.Mutex
	pending map[types.DeploymentKey]*pendingTransition
}

// NewLifecycle creates a Lifecycle firing after delay on clk.
func NewLifecycle(clk clock.WithDelayedExecution, delay time.Duration) *Lifecycle {
	if delay <= 0 {
		delay = DefaultTransitionDelay
	}
	return &Lifecycle{
		clock:   clk,
		delay:   delay,
		pending: make(map[types.DeploymentKey]*pendingTransition),
	}
}

// Delay returns the configured transition delay.
func (l *Lifecycle) Delay() time.Duration {
	return l.delay
}

// Now returns the lifecycle clock's current time.
func (l *Lifecycle) Now() time.Time {
	return l.clock.Now()
}

// Schedule arranges for fn to run once after the delay, replacing any
// transition already pending for key.
func (l *Lifecycle) Schedule(key types.DeploymentKey, fn func()) {
	entry, prev := l.register(key)
	if prev != nil {
		prev.stop()
	}
	l.arm(key, entry, fn)
}

// register records a pending transition for key without touching the clock,
// so callers may hold their own locks.
func (l *Lifecycle) register(key types.DeploymentKey) (entry, prev *pendingTransition) {
	entry = &pendingTransition{}
	l.mu.Lock()
	prev = l.pending[key]
	l.pending[key] = entry
	l.mu.Unlock()
	return entry, prev
}

// arm starts the timer of a registered transition. The clock is never
// called with the lifecycle lock held since fake clocks fire callbacks
// under their own lock.
func (l *Lifecycle) arm(key types.DeploymentKey, entry *pendingTransition, fn func()) {
	t := l.clock.AfterFunc(l.delay, func() {
		l.mu.Lock()
		current := l.pending[key] == entry
		if current {
			delete(l.pending, key)
		}
		l.mu.Unlock()

		if current {
			fn()
		}
	})
	entry.setTimer(t)
}

// Cancel drops the transition pending for key and reports whether one existed.
func (l *Lifecycle) Cancel(key types.DeploymentKey) bool {
	entry := l.detach(key)
	if entry != nil {
		entry.stop()
	}
	return entry != nil
}

func (l *Lifecycle) detach(key types.DeploymentKey) *pendingTransition {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.pending[key]
	delete(l.pending, key)
	return entry
}

// CancelExcept drops every pending transition whose key is not in keep.
func (l *Lifecycle) CancelExcept(keep map[types.DeploymentKey]bool) int {
	dropped := l.detachExcept(keep)
	stopAll(dropped)
	return len(dropped)
}

func (l *Lifecycle) detachExcept(keep map[types.DeploymentKey]bool) []*pendingTransition {
	l.mu.Lock()
	defer l.mu.Unlock()
	var dropped []*pendingTransition
	for key, entry := range l.pending {
		if !keep[key] {
			dropped = append(dropped, entry)
			delete(l.pending, key)
		}
	}
	return dropped
}

func stopAll(entries []*pendingTransition) {
	for _, entry := range entries {
		entry.stop()
	}
}

// Pending reports whether a transition is scheduled for key.
func (l *Lifecycle) Pending(key types.DeploymentKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[key]
	return ok
}

// Stop cancels every pending transition.
func (l *Lifecycle) Stop() {
	l.CancelExcept(nil)
}
