package polling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

type fakeSource struct {
	mu       sync.Mutex
	gate     chan struct{}
	canPods  bool
	deps     []types.Deployment
	runtimes []types.ServingRuntime
	pods     []types.Pod
	depsErr  error
	calls    []string
	podsNS   string
}

func (f *fakeSource) wait() {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeSource) Deployments(context.Context) ([]types.Deployment, error) {
	f.record("deployments")
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deps, f.depsErr
}

func (f *fakeSource) ServingRuntimes(context.Context) ([]types.ServingRuntime, error) {
	f.record("runtimes")
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runtimes, nil
}

func (f *fakeSource) Pods(_ context.Context, ns string) ([]types.Pod, error) {
	f.record("pods")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.podsNS = ns
	return f.pods, nil
}

func (f *fakeSource) CanFetchPods() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canPods
}

func (f *fakeSource) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakeSink struct {
	mu    sync.Mutex
	lists [][]types.Deployment
}

func (s *fakeSink) UpsertFromFetch(list []types.Deployment) {
	s.mu.Lock()
	s.lists = append(s.lists, list)
	s.mu.Unlock()
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

var epoch = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T, src *fakeSource, modes ModeNotifier, onErr func(error)) (*Coordinator, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	c := New(context.Background(), src, sink, modes, Options{
		PodNamespace: "bankchurn-kserve-2",
		OnError:      onErr,
		Clock:        testingclock.NewFakeClock(epoch),
	})
	t.Cleanup(c.Close)
	return c, sink
}

func TestActivateDeploymentsTab(t *testing.T) {
	src := &fakeSource{
		canPods: true,
		deps:    []types.Deployment{{Name: "churn-model", Namespace: "bankchurn-kserve-2"}},
		pods:    []types.Pod{{Name: "churn-model-predictor-0"}},
	}
	c, sink := newTestCoordinator(t, src, nil, nil)

	c.Activate(TabDeployments)
	c.Wait()

	if sink.count() != 1 {
		t.Fatalf("expected one upsert, got %d", sink.count())
	}
	v := c.Pods.Get()
	if !v.Available || len(v.Items) != 1 {
		t.Fatalf("unexpected pods view: %+v", v)
	}
	if v.UpdatedAt == nil || !v.UpdatedAt.Equal(epoch) {
		t.Errorf("expected updatedAt %v, got %v", epoch, v.UpdatedAt)
	}
	if src.podsNS != "bankchurn-kserve-2" {
		t.Errorf("expected pod namespace bankchurn-kserve-2, got %q", src.podsNS)
	}
	if got := c.State(); !got.Active || got.Tab != TabDeployments {
		t.Errorf("unexpected state %+v", got)
	}
}

func TestPodsUnavailableWhenSourceCannotServeThem(t *testing.T) {
	src := &fakeSource{canPods: false}
	c, _ := newTestCoordinator(t, src, nil, nil)

	c.Activate(TabDeployments)
	c.Wait()

	if src.callCount("pods") != 0 {
		t.Error("pods should not be fetched")
	}
	if c.Pods.Get().Available {
		t.Error("pods should be unavailable")
	}
}

func TestRuntimesTab(t *testing.T) {
	src := &fakeSource{runtimes: []types.ServingRuntime{{Name: "kserve-sklearnserver"}}}
	c, sink := newTestCoordinator(t, src, nil, nil)

	c.Activate(TabRuntimes)
	c.Wait()

	if sink.count() != 0 {
		t.Error("runtimes tab should not touch deployments")
	}
	if got := c.Runtimes.Get().Items; len(got) != 1 || got[0].Name != "kserve-sklearnserver" {
		t.Errorf("unexpected runtimes %+v", got)
	}
}

func TestSetTab(t *testing.T) {
	src := &fakeSource{}
	c, _ := newTestCoordinator(t, src, nil, nil)

	c.Activate(TabDeployments)
	c.Wait()

	if c.SetTab(TabDeployments) {
		t.Error("same tab should not trigger a cycle")
	}
	if !c.SetTab(TabRuntimes) {
		t.Error("tab change should trigger a cycle")
	}
	c.Wait()

	if n := src.callCount("deployments"); n != 1 {
		t.Errorf("expected 1 deployments fetch, got %d", n)
	}
	if n := src.callCount("runtimes"); n != 1 {
		t.Errorf("expected 1 runtimes fetch, got %d", n)
	}
}

func TestRefreshRequiresActiveView(t *testing.T) {
	src := &fakeSource{}
	c, _ := newTestCoordinator(t, src, nil, nil)

	if err := c.Refresh(); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}

	c.Activate(TabDeployments)
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	c.Wait()
	if n := src.callCount("deployments"); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
}

func TestDeactivateDiscardsInFlightResults(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{
		gate: gate,
		deps: []types.Deployment{{Name: "churn-model", Namespace: "default"}},
	}
	var errs []error
	var mu sync.Mutex
	c, sink := newTestCoordinator(t, src, nil, func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})

	c.Activate(TabDeployments)
	c.Deactivate()
	close(gate)
	c.Wait()

	if sink.count() != 0 {
		t.Error("results of a deactivated view must be discarded")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 0 {
		t.Errorf("no errors expected, got %v", errs)
	}
}

func TestReactivationDiscardsEarlierCycle(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{gate: gate}
	c, sink := newTestCoordinator(t, src, nil, nil)

	c.Activate(TabDeployments)
	c.Deactivate()
	c.Activate(TabDeployments)
	close(gate)
	c.Wait()

	if n := sink.count(); n != 1 {
		t.Errorf("only the second activation should apply, got %d upserts", n)
	}
}

func TestErrorsAreReported(t *testing.T) {
	boom := errors.New("backend unreachable")
	src := &fakeSource{depsErr: boom}
	var mu sync.Mutex
	var got []error
	c, sink := newTestCoordinator(t, src, nil, func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	})

	c.Activate(TabDeployments)
	c.Wait()

	if sink.count() != 0 {
		t.Error("failed fetch must not replace deployments")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || !errors.Is(got[0], boom) {
		t.Errorf("expected backend error, got %v", got)
	}
}

func TestModeChangeTriggersCycle(t *testing.T) {
	src := &fakeSource{}
	modes := mode.NewController(false)
	c, _ := newTestCoordinator(t, src, modes, nil)

	modes.Toggle()
	c.Wait()
	if n := src.callCount("deployments"); n != 0 {
		t.Fatalf("inactive view should ignore mode changes, got %d fetches", n)
	}

	c.Activate(TabDeployments)
	modes.Toggle()
	c.Wait()
	if n := src.callCount("deployments"); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
}

func TestParseTab(t *testing.T) {
	for _, s := range []string{"deployments", "runtimes"} {
		if _, err := ParseTab(s); err != nil {
			t.Errorf("ParseTab(%q): %v", s, err)
		}
	}
	if _, err := ParseTab("models"); err == nil {
		t.Error("expected error for unknown tab")
	}
}
