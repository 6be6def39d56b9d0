package handlers

import (
	"net/http"

	"github.com/kubenetlabs/mlops-console/internal/kubernetes"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
	"github.com/kubenetlabs/mlops-console/pkg/version"
)

// ConfigHandler serves the console settings views need to render forms.
type ConfigHandler struct {
	Modes            mode.Reader
	DefaultNamespace string
	PodNamespace     string
	// KServe is nil when no cluster is configured.
	KServe       *kubernetes.Capabilities
	UsageEnabled bool
}

type configResponse struct {
	Version          string            `json:"version"`
	Commit           string            `json:"commit"`
	Mode             ModeResponse      `json:"mode"`
	DefaultNamespace string            `json:"defaultNamespace"`
	PodNamespace     string            `json:"podNamespace"`
	Frameworks       []types.Framework `json:"frameworks"`
	KServeInstalled  bool              `json:"kserveInstalled"`
	UsageEnabled     bool              `json:"usageEnabled"`
}

// GetConfig returns version, mode, namespaces and cluster capabilities.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	resp := configResponse{
		Version:          version.Version,
		Commit:           version.Commit,
		Mode:             modeResponse(h.Modes),
		DefaultNamespace: h.DefaultNamespace,
		PodNamespace:     h.PodNamespace,
		Frameworks:       types.Frameworks,
		UsageEnabled:     h.UsageEnabled,
	}
	if h.KServe != nil {
		resp.KServeInstalled = h.KServe.Installed()
	}
	writeJSON(w, http.StatusOK, resp)
}
