package polling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"k8s.io/utils/clock"

	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Tab is a sub-view of the serving page.
type Tab string

const (
	TabDeployments Tab = "deployments"
	TabRuntimes    Tab = "runtimes"
)

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabDeployments, TabRuntimes:
		return Tab(s), nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// ErrInactive is returned by Refresh while no view is active.
var ErrInactive = errors.New("view is not active")

// Source fetches the resources a fetch cycle needs.
type Source interface {
	Deployments(ctx context.Context) ([]types.Deployment, error)
	ServingRuntimes(ctx context.Context) ([]types.ServingRuntime, error)
	Pods(ctx context.Context, namespace string) ([]types.Pod, error)
	CanFetchPods() bool
}

// DeploymentSink receives fetched deployment lists.
type DeploymentSink interface {
	UpsertFromFetch(list []types.Deployment)
}

// ModeNotifier delivers mode changes.
type ModeNotifier interface {
	Subscribe(fn mode.Listener) (unsubscribe func())
}

// Options configures a Coordinator.
type Options struct {
	PodNamespace string
	// OnError receives every failure of a cycle whose view is still active.
	OnError func(error)
	// OnSnapshot is invoked with "pods" or "runtimes" after a snapshot changes.
	OnSnapshot func(name string)
	Clock      clock.PassiveClock
}

// State describes the coordinator's view.
type State struct {
	Active bool `json:"active"`
	Tab    Tab  `json:"tab"`
}

// Coordinator runs one fetch cycle per activation, tab change, mode change
// or explicit refresh. It never polls on a timer. Cycles are neither
// coalesced nor cancelled; the last to complete wins. Results of cycles
// started under an earlier activation are discarded.
type Coordinator struct {
	ctx   context.Context
	src   Source
	store DeploymentSink
	opts  Options

	Pods     *Snapshot[types.Pod]
	Runtimes *Snapshot[types.ServingRuntime]

	mu         sync.Mutex
	active     bool
	activation uint64
	tab        Tab

	wg          sync.WaitGroup
	unsubscribe func()
}

// New creates a Coordinator. Cycles run under ctx. When modes is non-nil,
// every mode change triggers a cycle for the active tab.
func New(ctx context.Context, src Source, store DeploymentSink, modes ModeNotifier, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	c := &Coordinator{
		ctx:   ctx,
		src:   src,
		store: store,
		opts:  opts,
		tab:   TabDeployments,
	}
	c.Pods = NewSnapshot[types.Pod](func() { c.snapshotChanged("pods") })
	c.Runtimes = NewSnapshot[types.ServingRuntime](func() { c.snapshotChanged("runtimes") })
	if modes != nil {
		c.unsubscribe = modes.Subscribe(func(bool) { c.trigger("mode") })
	}
	return c
}

// State returns whether a view is active and which tab it shows.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Active: c.active, Tab: c.tab}
}

// PodsView returns a copy of the pod snapshot.
func (c *Coordinator) PodsView() View[types.Pod] {
	return c.Pods.Get()
}

// RuntimesView returns a copy of the serving-runtime snapshot.
func (c *Coordinator) RuntimesView() View[types.ServingRuntime] {
	return c.Runtimes.Get()
}

// Activate marks the view mounted on tab and runs a cycle.
func (c *Coordinator) Activate(tab Tab) {
	c.mu.Lock()
	if !c.active {
		c.active = true
		c.activation++
	}
	c.tab = tab
	c.mu.Unlock()
	c.trigger("activate")
}

// SetTab switches the active sub-tab and runs a cycle when it changed. An
// inactive view is activated on tab.
func (c *Coordinator) SetTab(tab Tab) bool {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		c.Activate(tab)
		return true
	}
	if c.tab == tab {
		c.mu.Unlock()
		return false
	}
	c.tab = tab
	c.mu.Unlock()
	c.trigger("tab")
	return true
}

// Refresh runs a cycle for the active tab.
func (c *Coordinator) Refresh() error {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if !active {
		return ErrInactive
	}
	c.trigger("refresh")
	return nil
}

// Deactivate unmounts the view. In-flight cycles run to completion but
// their results are discarded.
func (c *Coordinator) Deactivate() {
	c.mu.Lock()
	if c.active {
		c.active = false
		c.activation++
	}
	c.mu.Unlock()
}

// Wait blocks until every started cycle has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close stops reacting to mode changes, deactivates the view and waits
// for in-flight cycles.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.Deactivate()
	c.Wait()
}

func (c *Coordinator) trigger(reason string) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	gen := c.activation
	tab := c.tab
	c.mu.Unlock()

	slog.Debug("fetch cycle started", "tab", tab, "reason", reason)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runCycle(gen, tab)
	}()
}

// current reports whether results of a cycle started under gen may be applied.
func (c *Coordinator) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.activation == gen
}

func (c *Coordinator) runCycle(gen uint64, tab Tab) {
	switch tab {
	case TabRuntimes:
		runtimes, err := c.src.ServingRuntimes(c.ctx)
		if !c.current(gen) {
			return
		}
		if err != nil {
			c.report(err)
			return
		}
		c.Runtimes.Replace(runtimes, c.opts.Clock.Now())

	default:
		list, err := c.src.Deployments(c.ctx)
		if !c.current(gen) {
			return
		}
		if err != nil {
			c.report(err)
		} else {
			c.store.UpsertFromFetch(list)
		}

		if !c.src.CanFetchPods() {
			c.Pods.MarkUnavailable()
			return
		}
		pods, err := c.src.Pods(c.ctx, c.opts.PodNamespace)
		if !c.current(gen) {
			return
		}
		if err != nil {
			c.report(err)
			return
		}
		c.Pods.Replace(pods, c.opts.Clock.Now())
	}
}

func (c *Coordinator) report(err error) {
	slog.Warn("fetch cycle failed", "error", err)
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

func (c *Coordinator) snapshotChanged(name string) {
	if c.opts.OnSnapshot != nil {
		c.opts.OnSnapshot(name)
	}
}
