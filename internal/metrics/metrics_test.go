package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("deployments", "mock", nil)
	m.ObserveFetch("deployments", "mock", nil)
	m.ObserveFetch("deployments", "live", errors.New("unreachable"))

	if got := testutil.ToFloat64(m.Fetches.WithLabelValues("deployments", "mock", OutcomeSuccess)); got != 2 {
		t.Errorf("mock successes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Fetches.WithLabelValues("deployments", "live", OutcomeError)); got != 1 {
		t.Errorf("live errors = %v, want 1", got)
	}
}

func TestObserveMutationAndTransitions(t *testing.T) {
	m := New()

	m.ObserveMutation("create", "mock", nil)
	m.ObserveMutation("delete", "live", errors.New("boom"))
	m.ObserveTransition()
	m.ObserveModeChange(true)
	m.ObserveModeChange(false)

	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("create", "mock", OutcomeSuccess)); got != 1 {
		t.Errorf("create successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("delete", "live", OutcomeError)); got != 1 {
		t.Errorf("delete errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Transitions); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ModeToggles); got != 2 {
		t.Errorf("mode toggles = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTransition()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"mlops_console_simulated_transitions_total 1",
		"mlops_console_build_info",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
