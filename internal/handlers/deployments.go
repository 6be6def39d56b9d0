package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"k8s.io/utils/clock"

	"github.com/kubenetlabs/mlops-console/internal/deployments"
	prom "github.com/kubenetlabs/mlops-console/internal/prometheus"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// DeploymentStore is the deployment state the handlers operate on.
type DeploymentStore interface {
	List() []types.Deployment
	Selected() (types.Deployment, bool)
	Select(key types.DeploymentKey) error
	Create(ctx context.Context, spec types.DeploymentSpec) (types.Deployment, error)
	Delete(ctx context.Context, key types.DeploymentKey) error
	Logs(ctx context.Context, key types.DeploymentKey) ([]string, error)
}

// UsageQuerier reads resource usage of a deployment's predictor pods.
type UsageQuerier interface {
	Usage(ctx context.Context, end time.Time, key types.DeploymentKey) (*prom.DeploymentUsage, error)
}

// DeploymentHandler handles the deployment list, selection and mutations.
type DeploymentHandler struct {
	Store   DeploymentStore
	Notices Notifier
	// Prom is nil when no Prometheus is configured.
	Prom  UsageQuerier
	Clock clock.PassiveClock
}

func deploymentKey(r *http.Request) types.DeploymentKey {
	return types.DeploymentKey{
		Namespace: chi.URLParam(r, "namespace"),
		Name:      chi.URLParam(r, "name"),
	}
}

// List returns every deployment in display order plus the selection.
func (h *DeploymentHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := DeploymentsResponse{Deployments: h.Store.List()}
	if d, ok := h.Store.Selected(); ok {
		resp.Selected = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// Selected returns the selected deployment.
func (h *DeploymentHandler) Selected(w http.ResponseWriter, r *http.Request) {
	d, ok := h.Store.Selected()
	if !ok {
		writeError(w, http.StatusNotFound, "no deployment selected")
		return
	}
	writeJSON(w, http.StatusOK, types.DeploymentEnvelope{Deployment: &d})
}

// Create deploys the spec in the request body.
func (h *DeploymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var spec types.DeploymentSpec
	if err := decodeJSON(r, &spec); err != nil {
		respondError(w, r, h.Notices, err)
		return
	}

	d, err := h.Store.Create(r.Context(), spec)
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.DeploymentEnvelope{
		Deployment: &d,
		Message:    "Deployment created successfully",
	})
}

// Select points the selection at the deployment in the path.
func (h *DeploymentHandler) Select(w http.ResponseWriter, r *http.Request) {
	key := deploymentKey(r)
	if err := h.Store.Select(key); err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	d, _ := h.Store.Selected()
	writeJSON(w, http.StatusOK, types.DeploymentEnvelope{Deployment: &d})
}

// Delete removes the deployment in the path.
func (h *DeploymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := deploymentKey(r)
	if err := h.Store.Delete(r.Context(), key); err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	writeJSON(w, http.StatusOK, types.MessageResponse{
		Message: "Deployment " + key.Name + " in namespace " + key.Namespace + " deleted successfully",
	})
}

// Logs returns the deployment's log lines and selects it, as opening the
// log panel does.
func (h *DeploymentHandler) Logs(w http.ResponseWriter, r *http.Request) {
	key := deploymentKey(r)
	lines, err := h.Store.Logs(r.Context(), key)
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	// Live logs may belong to a deployment the list has not caught up with.
	if err := h.Store.Select(key); err != nil && !errors.Is(err, deployments.ErrNotFound) {
		respondError(w, r, h.Notices, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, types.LogsResponse{Name: key.Name, Namespace: key.Namespace, Logs: lines})
}

// Usage returns CPU, memory and request rate of the deployment's pods.
func (h *DeploymentHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if h.Prom == nil {
		writeError(w, http.StatusServiceUnavailable, "prometheus not configured")
		return
	}
	clk := h.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	usage, err := h.Prom.Usage(r.Context(), clk.Now(), deploymentKey(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
