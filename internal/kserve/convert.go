package kserve

import (
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

const (
	// InferenceServiceLabel marks pods created for an InferenceService.
	InferenceServiceLabel = "serving.kserve.io/inferenceservice"
	// PredictorContainer is the container holding the model server.
	PredictorContainer = "kserve-container"
	// LogTailLines bounds the log lines read per pod.
	LogTailLines = 100

	gpuResource = "nvidia.com/gpu"
	unknown     = "unknown"
)

// frameworkPredictors are the predictor keys of the per-framework spec shape.
var frameworkPredictors = []string{"tensorflow", "pytorch", "sklearn", "xgboost", "onnx"}

// toDeployment converts an InferenceService into a deployment record.
func toDeployment(u *unstructured.Unstructured) types.Deployment {
	predictor, _, _ := unstructured.NestedMap(u.Object, "spec", "predictor")

	d := types.Deployment{
		Name:      u.GetName(),
		Namespace: u.GetNamespace(),
		Created:   u.GetCreationTimestamp().Time,
		ModelURI:  modelURI(predictor),
		Framework: types.Framework(framework(predictor)),
		Version:   u.GetResourceVersion(),
		Status:    status(u),
		Resources: resources(predictor),
		Traffic:   100,
	}
	if d.Version == "" {
		d.Version = unknown
	}
	if d.Status == types.StatusFailed {
		d.Error = conditionError(u)
	}
	d.Endpoint, _, _ = unstructured.NestedString(u.Object, "status", "url")
	if n, found, _ := unstructured.NestedInt64(predictor, "minReplicas"); found {
		d.Replicas = int(n)
	}
	if t, found, _ := unstructured.NestedInt64(u.Object, "status", "components", "predictor", "traffic"); found {
		d.Traffic = int(t)
	}
	d.ServiceAccountName, _, _ = unstructured.NestedString(predictor, "serviceAccountName")
	return d
}

// modelSection returns the predictor section that carries the model, either
// the generic "model" block or a per-framework block.
func modelSection(predictor map[string]any) (key string, section map[string]any) {
	if m, ok := predictor["model"].(map[string]any); ok {
		return "model", m
	}
	for _, k := range frameworkPredictors {
		if m, ok := predictor[k].(map[string]any); ok {
			return k, m
		}
	}
	return "", nil
}

func modelURI(predictor map[string]any) string {
	_, section := modelSection(predictor)
	if uri, ok := section["storageUri"].(string); ok && uri != "" {
		return uri
	}
	return unknown
}

func framework(predictor map[string]any) string {
	key, section := modelSection(predictor)
	switch key {
	case "":
		return unknown
	case "model":
		name, _, _ := unstructured.NestedString(section, "modelFormat", "name")
		if name == "" {
			return unknown
		}
		return strings.ToLower(name)
	default:
		return key
	}
}

func resources(predictor map[string]any) types.Resources {
	_, section := modelSection(predictor)
	if section == nil {
		return types.Resources{CPU: unknown, Memory: unknown}
	}
	limits, _, _ := unstructured.NestedStringMap(section, "resources", "limits")
	requests, _, _ := unstructured.NestedStringMap(section, "resources", "requests")
	pick := func(name string) string {
		if v := limits[name]; v != "" {
			return v
		}
		if v := requests[name]; v != "" {
			return v
		}
		return unknown
	}
	return types.Resources{
		CPU:    pick("cpu"),
		Memory: pick("memory"),
		GPU:    limits[gpuResource],
	}
}

func conditions(u *unstructured.Unstructured) []map[string]any {
	raw, _, _ := unstructured.NestedSlice(u.Object, "status", "conditions")
	out := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// status maps the Ready condition onto the deployment status vocabulary.
func status(u *unstructured.Unstructured) types.DeploymentStatus {
	for _, c := range conditions(u) {
		if c["type"] != "Ready" {
			continue
		}
		switch c["status"] {
		case "True":
			return types.StatusRunning
		case "False":
			return types.StatusFailed
		default:
			return types.StatusCreating
		}
	}
	return types.StatusUnknown
}

// defaultFailure is reported when no failed condition explains itself.
const defaultFailure = "deployment failed"

// conditionError describes why a Failed deployment failed: the message of
// the first failed condition carrying one, else the first reason, else
// defaultFailure. It never returns "".
func conditionError(u *unstructured.Unstructured) string {
	var reason string
	for _, c := range conditions(u) {
		if c["status"] != "False" {
			continue
		}
		if msg, _ := c["message"].(string); msg != "" {
			return msg
		}
		if r, _ := c["reason"].(string); r != "" && reason == "" {
			reason = r
		}
	}
	if reason != "" {
		return reason
	}
	return defaultFailure
}

// toServingRuntime converts a (Cluster)ServingRuntime.
func toServingRuntime(u *unstructured.Unstructured, scope types.RuntimeScope) types.ServingRuntime {
	rt := types.ServingRuntime{
		Name:      u.GetName(),
		Namespace: u.GetNamespace(),
		Framework: unknown,
		Version:   unknown,
		Status:    types.RuntimeUnavailable,
		Scope:     scope,
	}
	formats, _, _ := unstructured.NestedSlice(u.Object, "spec", "supportedModelFormats")
	if len(formats) > 0 {
		if f, ok := formats[0].(map[string]any); ok {
			if name, ok := f["name"].(string); ok && name != "" {
				rt.Framework = strings.ToLower(name)
			}
			if v, ok := f["version"].(string); ok && v != "" {
				rt.Version = v
			}
		}
	}
	if conds := conditions(u); len(conds) > 0 && conds[0]["status"] == "True" {
		rt.Status = types.RuntimeAvailable
	}
	return rt
}

// toPod converts a core pod and classifies it.
func toPod(p *corev1.Pod) types.Pod {
	out := types.Pod{
		Name:      p.Name,
		Namespace: p.Namespace,
		Type:      types.PodTypeOther,
		Phase:     string(p.Status.Phase),
		IP:        p.Status.PodIP,
		Node:      p.Spec.NodeName,
		Labels:    p.Labels,
	}
	if isvc, ok := p.Labels[InferenceServiceLabel]; ok {
		out.Type = types.PodTypeInferenceService
		out.InferenceService = isvc
	} else if strings.HasPrefix(p.Name, "mlflow-") {
		out.Type = types.PodTypeMLflow
	}
	if p.Status.StartTime != nil {
		t := p.Status.StartTime.Time
		out.StartTime = &t
	}
	for _, c := range p.Spec.Containers {
		out.Containers = append(out.Containers, c.Name)
	}
	out.Ready = len(p.Status.ContainerStatuses) > 0
	for _, cs := range p.Status.ContainerStatuses {
		out.Ready = out.Ready && cs.Ready
		out.RestartCount += cs.RestartCount
	}
	return out
}

// buildInferenceService renders spec as an InferenceService. mlflow models
// use the generic model block with the v2 protocol; every other framework
// uses its own predictor key.
func buildInferenceService(spec types.DeploymentSpec) *unstructured.Unstructured {
	limits := map[string]any{}
	requests := map[string]any{}
	if spec.Resources.CPU != "" {
		limits["cpu"] = spec.Resources.CPU
		requests["cpu"] = spec.Resources.CPU
	}
	if spec.Resources.Memory != "" {
		limits["memory"] = spec.Resources.Memory
		requests["memory"] = spec.Resources.Memory
	}
	if spec.Resources.GPU != "" {
		limits[gpuResource] = spec.Resources.GPU
	}
	res := map[string]any{"limits": limits, "requests": requests}

	predictor := map[string]any{"minReplicas": int64(spec.Replicas)}
	if spec.ServiceAccountName != "" {
		predictor["serviceAccountName"] = spec.ServiceAccountName
	}
	fw := strings.ToLower(string(spec.Framework))
	if fw == string(types.FrameworkMLflow) {
		predictor["model"] = map[string]any{
			"modelFormat":     map[string]any{"name": "mlflow"},
			"protocolVersion": "v2",
			"storageUri":      spec.ModelURI,
			"resources":       res,
		}
	} else {
		predictor[fw] = map[string]any{
			"storageUri": spec.ModelURI,
			"resources":  res,
		}
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "serving.kserve.io/v1beta1",
		"kind":       "InferenceService",
		"metadata": map[string]any{
			"name":      spec.Name,
			"namespace": spec.Namespace,
		},
		"spec": map[string]any{"predictor": predictor},
	}}
}
