package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	prom "github.com/kubenetlabs/mlops-console/internal/prometheus"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

var epoch = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

// liveSource fails every mutation; reads return the configured list.
type liveSource struct {
	list []types.Deployment
	logs []string
	err  error
}

func (s *liveSource) Deployments(context.Context) ([]types.Deployment, error) {
	return s.list, nil
}

func (s *liveSource) CreateDeployment(context.Context, types.DeploymentSpec) error {
	return s.err
}

func (s *liveSource) DeleteDeployment(context.Context, types.DeploymentKey) error {
	return s.err
}

func (s *liveSource) DeploymentLogs(context.Context, types.DeploymentKey) ([]string, error) {
	return s.logs, nil
}

func newMockStore(t *testing.T, seed ...types.Deployment) *deployments.Store {
	t.Helper()
	lc := deployments.NewLifecycle(testingclock.NewFakeClock(epoch), 3*time.Second)
	store := deployments.NewStore(&liveSource{}, mode.Static(true), lc, deployments.Options{})
	t.Cleanup(store.Close)
	if len(seed) > 0 {
		store.UpsertFromFetch(seed)
	}
	return store
}

func deploymentRouter(h *DeploymentHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/deployments", h.List)
	r.Post("/deployments", h.Create)
	r.Get("/deployments/selected", h.Selected)
	r.Post("/deployments/{namespace}/{name}/select", h.Select)
	r.Delete("/deployments/{namespace}/{name}", h.Delete)
	r.Get("/deployments/{namespace}/{name}/logs", h.Logs)
	r.Get("/deployments/{namespace}/{name}/usage", h.Usage)
	return r
}

var (
	churn = types.Deployment{
		Name: "bank-churn-classifier", Namespace: "default", Framework: types.FrameworkSKLearn,
		ModelURI: "s3://models/churn", Status: types.StatusRunning,
	}
	fraud = types.Deployment{
		Name: "fraud-detector", Namespace: "prod", Framework: types.FrameworkXGBoost,
		ModelURI: "s3://models/fraud", Status: types.StatusFailed, Error: "insufficient GPU",
	}
)

func TestDeploymentHandler_List(t *testing.T) {
	r := deploymentRouter(&DeploymentHandler{Store: newMockStore(t, churn, fraud)})

	resp := decode[DeploymentsResponse](t, serve(t, r, http.MethodGet, "/deployments", ""))
	if len(resp.Deployments) != 2 {
		t.Fatalf("expected 2 deployments, got %d", len(resp.Deployments))
	}
	if resp.Selected == nil || resp.Selected.Name != churn.Name {
		t.Errorf("expected first record selected, got %+v", resp.Selected)
	}
}

func TestDeploymentHandler_SelectedEmpty(t *testing.T) {
	r := deploymentRouter(&DeploymentHandler{Store: newMockStore(t)})

	w := serve(t, r, http.MethodGet, "/deployments/selected", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDeploymentHandler_Create(t *testing.T) {
	t.Run("mock create prepends a creating record", func(t *testing.T) {
		store := newMockStore(t, churn)
		notices := &recordingNotifier{}
		r := deploymentRouter(&DeploymentHandler{Store: store, Notices: notices})

		w := serve(t, r, http.MethodPost, "/deployments", `{"name":"iris","model_uri":"s3://models/iris","framework":"sklearn"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		resp := decode[types.DeploymentEnvelope](t, w)
		if resp.Deployment == nil || resp.Deployment.Status != types.StatusCreating {
			t.Errorf("expected Creating record, got %+v", resp.Deployment)
		}
		if resp.Deployment.Namespace != "default" {
			t.Errorf("expected default namespace, got %q", resp.Deployment.Namespace)
		}
		if list := store.List(); list[0].Name != "iris" {
			t.Errorf("expected new record first, got %s", list[0].Name)
		}
		if notices.count() != 0 {
			t.Errorf("expected no notices, got %d", notices.count())
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		notices := &recordingNotifier{}
		r := deploymentRouter(&DeploymentHandler{Store: newMockStore(t), Notices: notices})

		w := serve(t, r, http.MethodPost, "/deployments", `{"name":"","model_uri":"s3://models/iris"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if notices.count() != 1 {
			t.Errorf("expected exactly 1 notice, got %d", notices.count())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		r := deploymentRouter(&DeploymentHandler{Store: newMockStore(t)})

		w := serve(t, r, http.MethodPost, "/deployments", `{"name":`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("live backend failure", func(t *testing.T) {
		lc := deployments.NewLifecycle(testingclock.NewFakeClock(epoch), time.Second)
		src := &liveSource{list: []types.Deployment{churn}, err: errors.New("connection refused")}
		store := deployments.NewStore(src, mode.Static(false), lc, deployments.Options{})
		store.UpsertFromFetch(src.list)
		notices := &recordingNotifier{}
		r := deploymentRouter(&DeploymentHandler{Store: store, Notices: notices})

		w := serve(t, r, http.MethodPost, "/deployments", `{"name":"iris","model_uri":"s3://models/iris"}`)
		if w.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", w.Code)
		}
		if len(store.List()) != 1 {
			t.Error("failed mutation must leave the store untouched")
		}
		if notices.count() != 1 {
			t.Errorf("expected exactly 1 notice, got %d", notices.count())
		}
	})
}

func TestDeploymentHandler_SelectAndDelete(t *testing.T) {
	store := newMockStore(t, churn, fraud)
	r := deploymentRouter(&DeploymentHandler{Store: store})

	w := serve(t, r, http.MethodPost, "/deployments/prod/fraud-detector/select", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if d, _ := store.Selected(); d.Name != fraud.Name {
		t.Errorf("expected fraud-detector selected, got %s", d.Name)
	}

	w = serve(t, r, http.MethodPost, "/deployments/prod/missing/select", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("select unknown: expected 404, got %d", w.Code)
	}

	w = serve(t, r, http.MethodDelete, "/deployments/prod/fraud-detector", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if list := store.List(); len(list) != 1 || list[0].Name != churn.Name {
		t.Errorf("unexpected records after delete: %+v", list)
	}

	w = serve(t, r, http.MethodDelete, "/deployments/prod/fraud-detector", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestDeploymentHandler_Logs(t *testing.T) {
	t.Run("mock transcript selects the deployment", func(t *testing.T) {
		store := newMockStore(t, churn, fraud)
		r := deploymentRouter(&DeploymentHandler{Store: store})

		w := serve(t, r, http.MethodGet, "/deployments/prod/fraud-detector/logs", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		resp := decode[types.LogsResponse](t, w)
		want := deployments.Transcript(fraud)
		if len(resp.Logs) != len(want) || resp.Logs[2] != want[2] {
			t.Errorf("unexpected transcript %v", resp.Logs)
		}
		if d, _ := store.Selected(); d.Name != fraud.Name {
			t.Errorf("expected logs to select fraud-detector, got %s", d.Name)
		}
	})

	t.Run("unknown deployment", func(t *testing.T) {
		r := deploymentRouter(&DeploymentHandler{Store: newMockStore(t, churn)})

		w := serve(t, r, http.MethodGet, "/deployments/prod/missing/logs", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("live lines for an unlisted deployment", func(t *testing.T) {
		lc := deployments.NewLifecycle(testingclock.NewFakeClock(epoch), time.Second)
		src := &liveSource{logs: []string{"line one", "line two"}}
		store := deployments.NewStore(src, mode.Static(false), lc, deployments.Options{})
		r := deploymentRouter(&DeploymentHandler{Store: store})

		w := serve(t, r, http.MethodGet, "/deployments/default/new-model/logs", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		resp := decode[types.LogsResponse](t, w)
		if len(resp.Logs) != 2 || resp.Logs[1] != "line two" {
			t.Errorf("expected live lines verbatim, got %v", resp.Logs)
		}
	})
}

type fakeUsage struct {
	end time.Time
	key types.DeploymentKey
}

func (f *fakeUsage) Usage(_ context.Context, end time.Time, key types.DeploymentKey) (*prom.DeploymentUsage, error) {
	f.end, f.key = end, key
	return &prom.DeploymentUsage{Name: key.Name, Namespace: key.Namespace, RequestsPerSec: 3.5}, nil
}

func TestDeploymentHandler_Usage(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		r := deploymentRouter(&DeploymentHandler{Store: newMockStore(t)})
		w := serve(t, r, http.MethodGet, "/deployments/default/churn/usage", "")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})

	t.Run("queries at the clock's time", func(t *testing.T) {
		usage := &fakeUsage{}
		r := deploymentRouter(&DeploymentHandler{
			Store: newMockStore(t),
			Prom:  usage,
			Clock: testingclock.NewFakePassiveClock(epoch),
		})
		w := serve(t, r, http.MethodGet, "/deployments/default/churn/usage", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !usage.end.Equal(epoch) || usage.key.Name != "churn" {
			t.Errorf("unexpected query (%v, %v)", usage.end, usage.key)
		}
		resp := decode[prom.DeploymentUsage](t, w)
		if resp.RequestsPerSec != 3.5 {
			t.Errorf("RequestsPerSec = %f, want 3.5", resp.RequestsPerSec)
		}
	})
}
