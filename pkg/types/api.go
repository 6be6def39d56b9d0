package types

import (
	"strings"
	"time"
)

// DeploymentStatus is the provisioning state of a serving endpoint.
type DeploymentStatus string

const (
	StatusCreating DeploymentStatus = "Creating"
	StatusRunning  DeploymentStatus = "Running"
	StatusFailed   DeploymentStatus = "Failed"
	// StatusUnknown is reported by the serving gateway when an
	// InferenceService carries no Ready condition yet.
	StatusUnknown DeploymentStatus = "Unknown"
)

// Framework identifies the model format served by a deployment.
type Framework string

const (
	FrameworkTensorFlow Framework = "tensorflow"
	FrameworkPyTorch    Framework = "pytorch"
	FrameworkSKLearn    Framework = "sklearn"
	FrameworkXGBoost    Framework = "xgboost"
	FrameworkONNX       Framework = "onnx"
	FrameworkMLflow     Framework = "mlflow"
)

// Frameworks lists every supported framework in form order.
var Frameworks = []Framework{
	FrameworkTensorFlow,
	FrameworkPyTorch,
	FrameworkSKLearn,
	FrameworkXGBoost,
	FrameworkONNX,
	FrameworkMLflow,
}

// Valid reports whether f is one of the supported frameworks.
func (f Framework) Valid() bool {
	for _, known := range Frameworks {
		if strings.EqualFold(string(f), string(known)) {
			return true
		}
	}
	return false
}

// Resources is the compute allocation of a deployment.
type Resources struct {
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
	GPU    string `json:"gpu,omitempty"`
}

// Deployment is one model-serving endpoint.
type Deployment struct {
	Name               string           `json:"name"`
	Namespace          string           `json:"namespace"`
	ModelURI           string           `json:"model_uri"`
	Framework          Framework        `json:"framework"`
	Replicas           int              `json:"replicas"`
	Resources          Resources        `json:"resources"`
	ServiceAccountName string           `json:"serviceAccountName,omitempty"`
	Status             DeploymentStatus `json:"status"`
	Error              string           `json:"error,omitempty"`
	Endpoint           string           `json:"endpoint"`
	Created            time.Time        `json:"created"`
	Traffic            int              `json:"traffic"`
	Version            string           `json:"version"`
}

// Key returns the identity of the deployment within the store.
func (d Deployment) Key() DeploymentKey {
	return DeploymentKey{Name: d.Name, Namespace: d.Namespace}
}

// DeploymentKey identifies a deployment by (name, namespace).
type DeploymentKey struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (k DeploymentKey) String() string {
	return k.Namespace + "/" + k.Name
}

// DeploymentSpec is the deploy-request body.
type DeploymentSpec struct {
	Name               string    `json:"name"`
	Namespace          string    `json:"namespace"`
	ModelURI           string    `json:"model_uri"`
	Framework          Framework `json:"framework"`
	Replicas           int       `json:"replicas"`
	ServiceAccountName string    `json:"serviceAccountName,omitempty"`
	Resources          Resources `json:"resources"`
}

// DeleteRequest is the body of a deployment delete.
type DeleteRequest struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// RuntimeStatus reports whether a serving runtime can accept models.
type RuntimeStatus string

const (
	RuntimeAvailable   RuntimeStatus = "Available"
	RuntimeUnavailable RuntimeStatus = "Unavailable"
)

// RuntimeScope is where a serving runtime is defined.
type RuntimeScope string

const (
	ScopeCluster    RuntimeScope = "Cluster"
	ScopeNamespaced RuntimeScope = "Namespaced"
	ScopeUnknown    RuntimeScope = "Unknown"
)

// ServingRuntime describes an available serving engine.
type ServingRuntime struct {
	Name      string        `json:"name"`
	Namespace string        `json:"namespace,omitempty"`
	Framework string        `json:"framework"`
	Version   string        `json:"version"`
	Status    RuntimeStatus `json:"status"`
	Scope     RuntimeScope  `json:"scope"`
}

// Pod types reported by the serving gateway.
const (
	PodTypeInferenceService = "InferenceService"
	PodTypeMLflow           = "MLflow"
	PodTypeOther            = "Other"
)

// Pod describes a compute unit backing a deployment.
type Pod struct {
	Name             string            `json:"name"`
	Namespace        string            `json:"namespace"`
	Type             string            `json:"type"`
	Phase            string            `json:"phase"`
	IP               string            `json:"ip,omitempty"`
	Node             string            `json:"node,omitempty"`
	StartTime        *time.Time        `json:"start_time,omitempty"`
	Labels           map[string]string `json:"labels,omitempty"`
	Containers       []string          `json:"containers,omitempty"`
	Ready            bool              `json:"ready"`
	RestartCount     int32             `json:"restart_count"`
	InferenceService string            `json:"inference_service,omitempty"`
}

// PipelineStep is one node of a pipeline as reported by the orchestrator.
type PipelineStep struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// PipelineDependency is a directed edge between two pipeline steps.
type PipelineDependency struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// PipelineGraphData is the raw pipeline graph payload.
type PipelineGraphData struct {
	Nodes []PipelineStep       `json:"nodes"`
	Edges []PipelineDependency `json:"edges"`
}

// Pipeline is a pipeline definition registered with the orchestrator.
type Pipeline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PipelineRun is one execution of a pipeline.
type PipelineRun struct {
	RunID      string            `json:"run_id"`
	PipelineID string            `json:"pipeline_id"`
	RunName    string            `json:"run_name"`
	Status     string            `json:"status"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    *time.Time        `json:"end_time,omitempty"`
	Duration   string            `json:"duration,omitempty"`
	Error      string            `json:"error,omitempty"`
	Metrics    map[string]string `json:"metrics,omitempty"`
}

// Experiment is a tracking-server experiment.
type Experiment struct {
	ExperimentID     string            `json:"experiment_id"`
	Name             string            `json:"name"`
	ArtifactLocation string            `json:"artifact_location"`
	LifecycleStage   string            `json:"lifecycle_stage"`
	CreationTime     int64             `json:"creation_time"`
	LastUpdateTime   int64             `json:"last_update_time"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// TrackingRun is a run recorded by the tracking server.
type TrackingRun struct {
	RunID        string             `json:"run_id"`
	ExperimentID string             `json:"experiment_id"`
	RunName      string             `json:"run_name,omitempty"`
	Status       string             `json:"status"`
	StartTime    int64              `json:"start_time"`
	EndTime      int64              `json:"end_time,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Params       map[string]string  `json:"params,omitempty"`
	Tags         map[string]string  `json:"tags,omitempty"`
}

// ModelVersion is one version of a registered model.
type ModelVersion struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	CreationTimestamp int64  `json:"creation_timestamp"`
	Status            string `json:"status"`
	Source            string `json:"source"`
	RunID             string `json:"run_id"`
}

// RegisteredModel is a model in the tracking server's registry.
type RegisteredModel struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description,omitempty"`
	CreationTimestamp    int64          `json:"creation_timestamp"`
	LastUpdatedTimestamp int64          `json:"last_updated_timestamp"`
	LatestVersions       []ModelVersion `json:"latest_versions,omitempty"`
}

// LogsResponse carries deployment log lines in arrival order.
type LogsResponse struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	Logs      []string `json:"logs"`
}

// Response envelopes shared by the serving gateway, the canned dataset and
// the backend client.

type DeploymentList struct {
	Deployments []Deployment `json:"deployments"`
}

type DeploymentEnvelope struct {
	Deployment *Deployment `json:"deployment,omitempty"`
	Message    string      `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ServingRuntimeList struct {
	Runtimes []ServingRuntime `json:"runtimes"`
}

type PodList struct {
	Pods []Pod `json:"pods"`
}

type ExperimentList struct {
	Experiments []Experiment `json:"experiments"`
}

type TrackingRunList struct {
	Runs []TrackingRun `json:"runs"`
}

type RegisteredModelList struct {
	Models []RegisteredModel `json:"models"`
}

type PipelineList struct {
	Pipelines []Pipeline `json:"pipelines"`
}

type PipelineRunList struct {
	Runs []PipelineRun `json:"runs"`
}
