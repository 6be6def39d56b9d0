package handlers

import (
	"net/http"

	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/mode"
)

// ModeSetter changes the data-source mode.
type ModeSetter interface {
	mode.Reader
	Set(usesMockData bool) bool
	Toggle() bool
}

// ModeHandler reads and switches the data-source mode.
type ModeHandler struct {
	Modes   ModeSetter
	Notices Notifier
}

type setModeRequest struct {
	UsesMockData *bool `json:"usesMockData"`
}

// Get returns the current mode.
func (h *ModeHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modeResponse(h.Modes))
}

// Set switches to the requested mode. Setting the current value is a no-op.
func (h *ModeHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if req.UsesMockData == nil {
		respondError(w, r, h.Notices, &deployments.ValidationFailed{Field: "usesMockData", Reason: "is required"})
		return
	}
	h.Modes.Set(*req.UsesMockData)
	writeJSON(w, http.StatusOK, modeResponse(h.Modes))
}

// Toggle flips the mode.
func (h *ModeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.Modes.Toggle()
	writeJSON(w, http.StatusOK, modeResponse(h.Modes))
}
