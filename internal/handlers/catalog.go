package handlers

import (
	"context"
	"net/http"

	"github.com/kubenetlabs/mlops-console/internal/mockbackend"
	"github.com/kubenetlabs/mlops-console/internal/overview"
	"github.com/kubenetlabs/mlops-console/internal/pipelinegraph"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Catalog reads the pipeline and tracking catalogues.
type Catalog interface {
	overview.Fetcher
	PipelineRuns(ctx context.Context) ([]types.PipelineRun, error)
	PipelineGraph(ctx context.Context, pipelineID string) (*types.PipelineGraphData, error)
}

// CatalogHandler serves pipelines, tracking data and the overview.
type CatalogHandler struct {
	Source  Catalog
	Notices Notifier
}

// Pipelines lists pipeline definitions.
func (h *CatalogHandler) Pipelines(w http.ResponseWriter, r *http.Request) {
	items, err := h.Source.Pipelines(r.Context())
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if items == nil {
		items = []types.Pipeline{}
	}
	writeJSON(w, http.StatusOK, types.PipelineList{Pipelines: items})
}

// PipelineRuns lists pipeline executions.
func (h *CatalogHandler) PipelineRuns(w http.ResponseWriter, r *http.Request) {
	items, err := h.Source.PipelineRuns(r.Context())
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if items == nil {
		items = []types.PipelineRun{}
	}
	writeJSON(w, http.StatusOK, types.PipelineRunList{Runs: items})
}

// PipelineGraph returns the positioned graph of ?pipelineId=, defaulting
// to the pipeline shown on first load.
func (h *CatalogHandler) PipelineGraph(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("pipelineId")
	if id == "" {
		id = mockbackend.DefaultPipelineID
	}
	data, err := h.Source.PipelineGraph(r.Context(), id)
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	writeJSON(w, http.StatusOK, pipelinegraph.FromData(data))
}

// Experiments lists tracking experiments.
func (h *CatalogHandler) Experiments(w http.ResponseWriter, r *http.Request) {
	items, err := h.Source.Experiments(r.Context())
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if items == nil {
		items = []types.Experiment{}
	}
	writeJSON(w, http.StatusOK, types.ExperimentList{Experiments: items})
}

// TrackingRuns lists tracking runs.
func (h *CatalogHandler) TrackingRuns(w http.ResponseWriter, r *http.Request) {
	items, err := h.Source.TrackingRuns(r.Context())
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if items == nil {
		items = []types.TrackingRun{}
	}
	writeJSON(w, http.StatusOK, types.TrackingRunList{Runs: items})
}

// Models lists registered models.
func (h *CatalogHandler) Models(w http.ResponseWriter, r *http.Request) {
	items, err := h.Source.Models(r.Context())
	if err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if items == nil {
		items = []types.RegisteredModel{}
	}
	writeJSON(w, http.StatusOK, types.RegisteredModelList{Models: items})
}

// Overview returns the dashboard summary. Sections that failed are listed
// in its errors; only a complete failure is reported as an error status.
func (h *CatalogHandler) Overview(w http.ResponseWriter, r *http.Request) {
	summary, err := overview.Build(r.Context(), h.Source)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err := summary.Require(); err != nil {
		respondError(w, r, h.Notices, err)
		return
	}
	if h.Notices != nil {
		for _, e := range summary.Errors {
			h.Notices.Notice(e.Message)
		}
	}
	writeJSON(w, http.StatusOK, summary)
}
