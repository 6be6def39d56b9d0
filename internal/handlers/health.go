package handlers

import (
	"net/http"

	"github.com/kubenetlabs/mlops-console/pkg/version"
)

// HealthCheck reports liveness together with the build version.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
