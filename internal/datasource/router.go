package datasource

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/kubenetlabs/mlops-console/internal/backend"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Resource names a logical resource served by one of the backends.
type Resource string

const (
	Experiments     Resource = "experiments"
	TrackingRuns    Resource = "runs"
	Models          Resource = "models"
	Pipelines       Resource = "pipelines"
	PipelineRuns    Resource = "pipelineRuns"
	PipelineGraph   Resource = "pipelineGraph"
	Deployments     Resource = "deployments"
	ServingRuntimes Resource = "servingRuntimes"
	Pods            Resource = "pods"
	Logs            Resource = "logs"
)

// endpoint is the pair of paths serving one resource. An empty mock path
// means the resource is suppressed in mock mode.
type endpoint struct {
	live string
	mock string
}

// endpoints uses the canonical /<service>/mock/<resource> scheme for the
// canned dataset.
var endpoints = map[Resource]endpoint{
	Experiments:     {live: "/mlflow/experiments", mock: "/mlflow/mock/experiments"},
	TrackingRuns:    {live: "/mlflow/runs", mock: "/mlflow/mock/runs"},
	Models:          {live: "/mlflow/models", mock: "/mlflow/mock/models"},
	Pipelines:       {live: "/kubeflow/pipelines", mock: "/kubeflow/mock/pipelines"},
	PipelineRuns:    {live: "/kubeflow/runs", mock: "/kubeflow/mock/runs"},
	PipelineGraph:   {live: "/kubeflow/pipeline-graph", mock: "/kubeflow/mock/pipeline-graph"},
	Deployments:     {live: "/kserve/deployments", mock: "/kserve/mock/deployments"},
	ServingRuntimes: {live: "/kserve/serving-runtimes", mock: "/kserve/mock/serving-runtimes"},
	Pods:            {live: "/kserve/pods"},
	Logs:            {live: "/kserve/deployments"},
}

// Path returns the path serving r for the given source and whether r is
// available from that source.
func Path(r Resource, src mode.Source) (string, bool) {
	ep, ok := endpoints[r]
	if !ok {
		return "", false
	}
	if src == mode.SourceMock {
		return ep.mock, ep.mock != ""
	}
	return ep.live, ep.live != ""
}

// Observer receives the outcome of every fetch.
type Observer interface {
	ObserveFetch(resource, source string, err error)
}

// Router selects the mock or live endpoint family per resource, reading
// the mode at call time.
type Router struct {
	client   *backend.Client
	mode     mode.Reader
	observer Observer
}

// New creates a Router. observer may be nil.
func New(client *backend.Client, m mode.Reader, observer Observer) *Router {
	return &Router{client: client, mode: m, observer: observer}
}

// UsesMockData reports the mode the next call will use.
func (r *Router) UsesMockData() bool {
	return r.mode.UsesMockData()
}

// CanFetchPods reports whether pod and log retrieval is possible. There
// is no backend to ask while the canned dataset is active.
func (r *Router) CanFetchPods() bool {
	return !r.mode.UsesMockData()
}

// fetch resolves the path for res under the current mode and decodes the
// response. Failures are wrapped in *FetchFailed; nothing is retried.
func fetch[T any](ctx context.Context, r *Router, res Resource, suffix string, query url.Values) (*T, error) {
	src := mode.SourceOf(r.mode)
	path, ok := Path(res, src)
	if !ok {
		return nil, ErrSuppressed
	}

	out, err := backend.Get[T](ctx, r.client, path+suffix, query)
	if r.observer != nil {
		r.observer.ObserveFetch(string(res), string(src), err)
	}
	if err != nil {
		slog.Warn("fetch failed", "resource", res, "source", src, "error", err)
		return nil, &FetchFailed{Resource: res, Cause: err}
	}
	return out, nil
}

// Deployments returns the serving endpoints in server order.
func (r *Router) Deployments(ctx context.Context) ([]types.Deployment, error) {
	out, err := fetch[types.DeploymentList](ctx, r, Deployments, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Deployments, nil
}

// ServingRuntimes returns the available serving engines.
func (r *Router) ServingRuntimes(ctx context.Context) ([]types.ServingRuntime, error) {
	out, err := fetch[types.ServingRuntimeList](ctx, r, ServingRuntimes, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Runtimes, nil
}

// Pods returns the pods of namespace. It returns ErrSuppressed in mock mode.
func (r *Router) Pods(ctx context.Context, namespace string) ([]types.Pod, error) {
	if !r.CanFetchPods() {
		return nil, ErrSuppressed
	}
	var q url.Values
	if namespace != "" {
		q = url.Values{"namespace": {namespace}}
	}
	out, err := fetch[types.PodList](ctx, r, Pods, "", q)
	if err != nil {
		return nil, err
	}
	return out.Pods, nil
}

// DeploymentLogs returns the backend's log lines verbatim. It returns
// ErrSuppressed in mock mode.
func (r *Router) DeploymentLogs(ctx context.Context, key types.DeploymentKey) ([]string, error) {
	if !r.CanFetchPods() {
		return nil, ErrSuppressed
	}
	q := url.Values{"namespace": {key.Namespace}}
	out, err := fetch[types.LogsResponse](ctx, r, Logs, "/"+url.PathEscape(key.Name)+"/logs", q)
	if err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// Experiments returns the tracking server's experiments.
func (r *Router) Experiments(ctx context.Context) ([]types.Experiment, error) {
	out, err := fetch[types.ExperimentList](ctx, r, Experiments, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Experiments, nil
}

// TrackingRuns returns the tracking server's runs.
func (r *Router) TrackingRuns(ctx context.Context) ([]types.TrackingRun, error) {
	out, err := fetch[types.TrackingRunList](ctx, r, TrackingRuns, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Runs, nil
}

// Models returns the registered models.
func (r *Router) Models(ctx context.Context) ([]types.RegisteredModel, error) {
	out, err := fetch[types.RegisteredModelList](ctx, r, Models, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Models, nil
}

// Pipelines returns the orchestrator's pipelines.
func (r *Router) Pipelines(ctx context.Context) ([]types.Pipeline, error) {
	out, err := fetch[types.PipelineList](ctx, r, Pipelines, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Pipelines, nil
}

// PipelineRuns returns the orchestrator's pipeline runs.
func (r *Router) PipelineRuns(ctx context.Context) ([]types.PipelineRun, error) {
	out, err := fetch[types.PipelineRunList](ctx, r, PipelineRuns, "", nil)
	if err != nil {
		return nil, err
	}
	return out.Runs, nil
}

// PipelineGraph returns the raw step and dependency lists of a pipeline.
func (r *Router) PipelineGraph(ctx context.Context, pipelineID string) (*types.PipelineGraphData, error) {
	var q url.Values
	if pipelineID != "" {
		q = url.Values{"pipeline_id": {pipelineID}}
	}
	return fetch[types.PipelineGraphData](ctx, r, PipelineGraph, "", q)
}
