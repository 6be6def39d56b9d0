package kserve

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Handler exposes a Gateway under /kserve.
type Handler struct {
	Gateway *Gateway
}

// Routes registers the live serving endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/kserve/deployments", h.ListDeployments)
	r.Post("/kserve/deployments", h.CreateDeployment)
	r.Get("/kserve/deployments/{name}", h.GetDeployment)
	r.Delete("/kserve/deployments/{name}", h.DeleteDeployment)
	r.Get("/kserve/deployments/{name}/logs", h.Logs)
	r.Get("/kserve/deployments/{name}/pods", h.DeploymentPods)
	r.Get("/kserve/serving-runtimes", h.ServingRuntimes)
	r.Get("/kserve/pods", h.Pods)
}

func (h *Handler) key(r *http.Request) types.DeploymentKey {
	ns := r.URL.Query().Get("namespace")
	if ns == "" {
		ns = h.Gateway.opts.DefaultNamespace
	}
	return types.DeploymentKey{Namespace: ns, Name: chi.URLParam(r, "name")}
}

// ListDeployments returns InferenceServices, optionally for one namespace.
func (h *Handler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	deps := h.Gateway.Deployments(r.Context(), r.URL.Query().Get("namespace"))
	writeJSON(w, http.StatusOK, types.DeploymentList{Deployments: deps})
}

// GetDeployment returns a single InferenceService.
func (h *Handler) GetDeployment(w http.ResponseWriter, r *http.Request) {
	key := h.key(r)
	d, err := h.Gateway.Deployment(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("InferenceService %s not found in namespace %s", key.Name, key.Namespace))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.DeploymentEnvelope{Deployment: &d})
}

// CreateDeployment submits a new InferenceService.
func (h *Handler) CreateDeployment(w http.ResponseWriter, r *http.Request) {
	var spec types.DeploymentSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	spec = ApplyDefaults(spec, h.Gateway.opts.DefaultNamespace)
	if err := Validate(spec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Gateway.Create(r.Context(), spec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating deployment: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.DeploymentEnvelope{Deployment: &d, Message: "Deployment created successfully"})
}

// DeleteDeployment removes an InferenceService.
func (h *Handler) DeleteDeployment(w http.ResponseWriter, r *http.Request) {
	key := h.key(r)
	if err := h.Gateway.Delete(r.Context(), key); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, fmt.Sprintf("Error deleting InferenceService %s in namespace %s: %v", key.Name, key.Namespace, err))
		return
	}
	writeJSON(w, http.StatusOK, types.MessageResponse{
		Message: fmt.Sprintf("InferenceService %s in namespace %s deleted successfully", key.Name, key.Namespace),
	})
}

// Logs returns the predictor log tail. A read failure is reported as a
// single log line so the caller can still display it.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	key := h.key(r)
	lines, err := h.Gateway.Logs(r.Context(), key)
	if err != nil {
		lines = []string{"Error fetching logs: " + err.Error()}
	}
	writeJSON(w, http.StatusOK, types.LogsResponse{Name: key.Name, Namespace: key.Namespace, Logs: lines})
}

// DeploymentPods returns the pods of one InferenceService.
func (h *Handler) DeploymentPods(w http.ResponseWriter, r *http.Request) {
	pods, err := h.Gateway.DeploymentPods(r.Context(), h.key(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.PodList{Pods: pods})
}

// ServingRuntimes returns cluster and namespaced runtimes.
func (h *Handler) ServingRuntimes(w http.ResponseWriter, r *http.Request) {
	rts := h.Gateway.ServingRuntimes(r.Context(), r.URL.Query().Get("namespace"))
	writeJSON(w, http.StatusOK, types.ServingRuntimeList{Runtimes: rts})
}

// Pods returns every pod of a namespace.
func (h *Handler) Pods(w http.ResponseWriter, r *http.Request) {
	pods, err := h.Gateway.Pods(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.PodList{Pods: pods})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
