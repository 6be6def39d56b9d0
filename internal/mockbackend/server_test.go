package mockbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/kubenetlabs/mlops-console/internal/backend"
	"github.com/kubenetlabs/mlops-console/internal/datasource"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

var now = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(testingclock.NewFakePassiveClock(now)).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestDeploymentsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/kserve/mock/deployments")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list types.DeploymentList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Deployments) != 3 {
		t.Fatalf("expected 3 deployments, got %d", len(list.Deployments))
	}
	seg := list.Deployments[2]
	if seg.Name != "customer-segmentation" || seg.Status != types.StatusFailed || seg.Error == "" {
		t.Errorf("unexpected failed deployment %+v", seg)
	}
	for _, d := range list.Deployments[:2] {
		if d.Status != types.StatusRunning {
			t.Errorf("%s: expected Running, got %s", d.Name, d.Status)
		}
	}
	if want := now.Add(-5 * day); !list.Deployments[0].Created.Equal(want) {
		t.Errorf("created = %v, want %v", list.Deployments[0].Created, want)
	}
}

func TestUnknownMockRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/kserve/mock/pods")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// The router's mock paths must all be served by this package.
func TestRouterReadsEveryMockResource(t *testing.T) {
	srv := newTestServer(t)
	router := datasource.New(backend.New(srv.URL, 5*time.Second), mode.Static(true), nil)
	ctx := context.Background()

	experiments, err := router.Experiments(ctx)
	if err != nil || len(experiments) != 3 {
		t.Errorf("experiments: %d, %v", len(experiments), err)
	}
	runs, err := router.TrackingRuns(ctx)
	if err != nil || len(runs) != 3 {
		t.Errorf("runs: %d, %v", len(runs), err)
	}
	models, err := router.Models(ctx)
	if err != nil || len(models) != 2 {
		t.Errorf("models: %d, %v", len(models), err)
	}
	pipelines, err := router.Pipelines(ctx)
	if err != nil || len(pipelines) != 3 {
		t.Errorf("pipelines: %d, %v", len(pipelines), err)
	}
	pipelineRuns, err := router.PipelineRuns(ctx)
	if err != nil || len(pipelineRuns) != 4 {
		t.Errorf("pipeline runs: %d, %v", len(pipelineRuns), err)
	}
	graph, err := router.PipelineGraph(ctx, "pipe-1")
	if err != nil || len(graph.Nodes) != 6 || len(graph.Edges) != 5 {
		t.Errorf("graph: %+v, %v", graph, err)
	}
	deployments, err := router.Deployments(ctx)
	if err != nil || len(deployments) != 3 {
		t.Errorf("deployments: %d, %v", len(deployments), err)
	}
	runtimes, err := router.ServingRuntimes(ctx)
	if err != nil || len(runtimes) != 4 {
		t.Errorf("runtimes: %d, %v", len(runtimes), err)
	}
}

func TestDatasetFailedRunCarriesError(t *testing.T) {
	ds := NewDataset(now)
	var failed *types.PipelineRun
	for i := range ds.PipelineRuns {
		if ds.PipelineRuns[i].Status == "Failed" {
			failed = &ds.PipelineRuns[i]
		}
	}
	if failed == nil || failed.Error != "Resource quota exceeded during model training" {
		t.Errorf("unexpected failed run %+v", failed)
	}
}
