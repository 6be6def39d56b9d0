package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kubenetlabs/mlops-console/internal/datasource"
	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/internal/overview"
	"github.com/kubenetlabs/mlops-console/internal/polling"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Notifier publishes a dismissible error notice to connected views.
type Notifier interface {
	Notice(message string)
}

// ModeResponse describes the data-source mode.
type ModeResponse struct {
	UsesMockData bool        `json:"usesMockData"`
	Source       mode.Source `json:"source"`
}

func modeResponse(r mode.Reader) ModeResponse {
	return ModeResponse{UsesMockData: r.UsesMockData(), Source: mode.SourceOf(r)}
}

// DeploymentsResponse is the deployment list together with the selection.
type DeploymentsResponse struct {
	Deployments []types.Deployment `json:"deployments"`
	Selected    *types.Deployment  `json:"selected"`
}

// PodsResponse is the pod snapshot. Available is false while pod data
// cannot be fetched, e.g. in mock mode.
type PodsResponse struct {
	Pods      []types.Pod `json:"pods"`
	Available bool        `json:"available"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
}

// ServingRuntimesResponse is the serving-runtime snapshot.
type ServingRuntimesResponse struct {
	Runtimes  []types.ServingRuntime `json:"runtimes"`
	UpdatedAt string                 `json:"updatedAt,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	var validation *deployments.ValidationFailed
	var fetch *datasource.FetchFailed
	var mutation *deployments.MutationFailed
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, deployments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, datasource.ErrSuppressed), errors.Is(err, polling.ErrInactive):
		return http.StatusConflict
	case errors.As(err, &fetch), errors.As(err, &mutation), errors.Is(err, overview.ErrAllFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status and publishes the same
// message once as a notice.
func respondError(w http.ResponseWriter, r *http.Request, n Notifier, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	if n != nil {
		n.Notice(err.Error())
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &deployments.ValidationFailed{Field: "body", Reason: err.Error()}
	}
	return nil
}
