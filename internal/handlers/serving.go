package handlers

import (
	"net/http"
	"time"

	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/polling"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// ServingView is the polling surface of the serving page.
type ServingView interface {
	State() polling.State
	SetTab(tab polling.Tab) bool
	Refresh() error
	Deactivate()
	PodsView() polling.View[types.Pod]
	RuntimesView() polling.View[types.ServingRuntime]
}

// ServingHandler drives the serving page lifecycle and serves its
// read-only snapshots.
type ServingHandler struct {
	View    ServingView
	Notices Notifier
}

type viewRequest struct {
	Tab string `json:"tab"`
}

// Activate mounts the serving page on the requested tab, or switches tab
// when already mounted. Each call that changes state triggers a fetch.
func (h *ServingHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, h.Notices, err)
			return
		}
	}
	if req.Tab == "" {
		req.Tab = string(polling.TabDeployments)
	}
	tab, err := polling.ParseTab(req.Tab)
	if err != nil {
		respondError(w, r, h.Notices, &deployments.ValidationFailed{Field: "tab", Reason: err.Error()})
		return
	}
	h.View.SetTab(tab)
	writeJSON(w, http.StatusOK, h.View.State())
}

// Deactivate unmounts the serving page. Fetches still in flight are
// discarded when they complete.
func (h *ServingHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.View.Deactivate()
	writeJSON(w, http.StatusOK, h.View.State())
}

// Refresh starts a fetch for the active tab.
func (h *ServingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.View.Refresh(); err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.View.State())
}

// Pods returns the pod snapshot.
func (h *ServingHandler) Pods(w http.ResponseWriter, r *http.Request) {
	v := h.View.PodsView()
	resp := PodsResponse{Pods: v.Items, Available: v.Available, UpdatedAt: formatTime(v.UpdatedAt)}
	if resp.Pods == nil {
		resp.Pods = []types.Pod{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ServingRuntimes returns the serving-runtime snapshot.
func (h *ServingHandler) ServingRuntimes(w http.ResponseWriter, r *http.Request) {
	v := h.View.RuntimesView()
	resp := ServingRuntimesResponse{Runtimes: v.Items, UpdatedAt: formatTime(v.UpdatedAt)}
	if resp.Runtimes == nil {
		resp.Runtimes = []types.ServingRuntime{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
