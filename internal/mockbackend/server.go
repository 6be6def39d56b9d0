// Package mockbackend serves the canned dataset behind the mock endpoint
// family of the three backend services.
package mockbackend

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"k8s.io/utils/clock"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Server answers the /<service>/mock/<resource> routes.
type Server struct {
	clock clock.PassiveClock
}

// New creates a mock backend. Timestamps in responses are relative to clk.
func New(clk clock.PassiveClock) *Server {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Server{clock: clk}
}

// Routes registers the mock endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/mlflow/mock/experiments", s.experiments)
	r.Get("/mlflow/mock/runs", s.trackingRuns)
	r.Get("/mlflow/mock/models", s.models)
	r.Get("/kubeflow/mock/pipelines", s.pipelines)
	r.Get("/kubeflow/mock/runs", s.pipelineRuns)
	r.Get("/kubeflow/mock/pipeline-graph", s.pipelineGraph)
	r.Get("/kserve/mock/deployments", s.deployments)
	r.Get("/kserve/mock/serving-runtimes", s.servingRuntimes)
}

func (s *Server) dataset() *Dataset {
	return NewDataset(s.clock.Now())
}

func (s *Server) experiments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.ExperimentList{Experiments: s.dataset().Experiments})
}

func (s *Server) trackingRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.TrackingRunList{Runs: s.dataset().TrackingRuns})
}

func (s *Server) models(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.RegisteredModelList{Models: s.dataset().Models})
}

func (s *Server) pipelines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.PipelineList{Pipelines: s.dataset().Pipelines})
}

func (s *Server) pipelineRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.PipelineRunList{Runs: s.dataset().PipelineRuns})
}

// pipelineGraph serves the same graph for every pipeline id.
func (s *Server) pipelineGraph(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("pipeline_id")
	if id == "" {
		id = DefaultPipelineID
	}
	slog.Debug("serving canned pipeline graph", "pipeline_id", id)
	writeJSON(w, s.dataset().Graph)
}

func (s *Server) deployments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.DeploymentList{Deployments: s.dataset().Deployments})
}

func (s *Server) servingRuntimes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, types.ServingRuntimeList{Runtimes: s.dataset().ServingRuntimes})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
