// Package kserve implements the live serving endpoint family on top of a
// Kubernetes cluster running KServe.
package kserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// ErrNotFound is returned when the named InferenceService does not exist.
var ErrNotFound = errors.New("inferenceservice not found")

// Cluster is the Kubernetes access the gateway needs.
type Cluster interface {
	ListInferenceServices(ctx context.Context, namespace string) ([]unstructured.Unstructured, error)
	GetInferenceService(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error)
	CreateInferenceService(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	DeleteInferenceService(ctx context.Context, namespace, name string) error
	ListClusterServingRuntimes(ctx context.Context) ([]unstructured.Unstructured, error)
	ListServingRuntimes(ctx context.Context, namespace string) ([]unstructured.Unstructured, error)
	ListPods(ctx context.Context, namespace string, labels map[string]string) ([]corev1.Pod, error)
	PodLogs(ctx context.Context, namespace, pod, container string, tail int64) (string, error)
}

// Options configures a Gateway.
type Options struct {
	// Namespaces are scanned, in order, when a list request names none.
	Namespaces []string
	// DefaultNamespace applies to single-object requests that name none.
	DefaultNamespace string
	// PodNamespace applies to pod listings that name none.
	PodNamespace string
}

// Gateway reads and mutates InferenceServices.
type Gateway struct {
	cluster Cluster
	opts    Options
}

// NewGateway creates a Gateway.
func NewGateway(c Cluster, opts Options) *Gateway {
	if opts.DefaultNamespace == "" {
		opts.DefaultNamespace = "default"
	}
	if len(opts.Namespaces) == 0 {
		opts.Namespaces = []string{opts.DefaultNamespace}
	}
	return &Gateway{cluster: c, opts: opts}
}

func (g *Gateway) namespaces(namespace string) []string {
	if namespace != "" {
		return []string{namespace}
	}
	return g.opts.Namespaces
}

// Deployments lists InferenceServices across the scanned namespaces.
// Namespaces that cannot be read are skipped.
func (g *Gateway) Deployments(ctx context.Context, namespace string) []types.Deployment {
	out := []types.Deployment{}
	for _, ns := range g.namespaces(namespace) {
		items, err := g.cluster.ListInferenceServices(ctx, ns)
		if err != nil {
			slog.Warn("skipping namespace", "namespace", ns, "error", err)
			continue
		}
		for i := range items {
			out = append(out, toDeployment(&items[i]))
		}
	}
	return out
}

// Deployment returns a single InferenceService.
func (g *Gateway) Deployment(ctx context.Context, key types.DeploymentKey) (types.Deployment, error) {
	u, err := g.cluster.GetInferenceService(ctx, key.Namespace, key.Name)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return types.Deployment{}, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return types.Deployment{}, err
	}
	return toDeployment(u), nil
}

// ApplyDefaults fills the fields a deploy request may omit.
func ApplyDefaults(spec types.DeploymentSpec, defaultNamespace string) types.DeploymentSpec {
	if spec.Namespace == "" {
		spec.Namespace = defaultNamespace
	}
	if spec.Framework == "" {
		spec.Framework = types.FrameworkTensorFlow
	}
	if spec.Replicas == 0 {
		spec.Replicas = 1
	}
	if spec.Resources.CPU == "" && spec.Resources.Memory == "" {
		spec.Resources.CPU = "1"
		spec.Resources.Memory = "2Gi"
	}
	return spec
}

// Validate checks a deploy request before it reaches the cluster.
func Validate(spec types.DeploymentSpec) error {
	switch {
	case strings.TrimSpace(spec.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(spec.ModelURI) == "":
		return errors.New("model_uri is required")
	case !spec.Framework.Valid():
		return fmt.Errorf("unsupported framework %q", spec.Framework)
	case spec.Replicas < 1:
		return errors.New("replicas must be at least 1")
	}
	return nil
}

// Create submits a new InferenceService and returns it as read back.
func (g *Gateway) Create(ctx context.Context, spec types.DeploymentSpec) (types.Deployment, error) {
	spec = ApplyDefaults(spec, g.opts.DefaultNamespace)
	if err := Validate(spec); err != nil {
		return types.Deployment{}, err
	}
	created, err := g.cluster.CreateInferenceService(ctx, buildInferenceService(spec))
	if err != nil {
		return types.Deployment{}, err
	}
	slog.Info("inferenceservice created", "namespace", spec.Namespace, "name", spec.Name, "framework", spec.Framework)
	return toDeployment(created), nil
}

// Delete removes an InferenceService.
func (g *Gateway) Delete(ctx context.Context, key types.DeploymentKey) error {
	if err := g.cluster.DeleteInferenceService(ctx, key.Namespace, key.Name); err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return err
	}
	slog.Info("inferenceservice deleted", "namespace", key.Namespace, "name", key.Name)
	return nil
}

// Logs returns the tail of the predictor container of every pod of the
// InferenceService, pod by pod.
func (g *Gateway) Logs(ctx context.Context, key types.DeploymentKey) ([]string, error) {
	pods, err := g.cluster.ListPods(ctx, key.Namespace, map[string]string{InferenceServiceLabel: key.Name})
	if err != nil {
		return nil, err
	}
	lines := []string{}
	for _, p := range pods {
		raw, err := g.cluster.PodLogs(ctx, key.Namespace, p.Name, PredictorContainer, LogTailLines)
		if err != nil {
			return nil, err
		}
		lines = append(lines, strings.Split(raw, "\n")...)
	}
	return lines, nil
}

// ServingRuntimes lists cluster-scoped runtimes followed by the namespaced
// runtimes of the scanned namespaces. Unreadable scopes are skipped.
func (g *Gateway) ServingRuntimes(ctx context.Context, namespace string) []types.ServingRuntime {
	out := []types.ServingRuntime{}
	cluster, err := g.cluster.ListClusterServingRuntimes(ctx)
	if err != nil {
		slog.Warn("cluster serving runtimes unavailable", "error", err)
	}
	for i := range cluster {
		out = append(out, toServingRuntime(&cluster[i], types.ScopeCluster))
	}
	for _, ns := range g.namespaces(namespace) {
		items, err := g.cluster.ListServingRuntimes(ctx, ns)
		if err != nil {
			slog.Debug("skipping namespace", "namespace", ns, "error", err)
			continue
		}
		for i := range items {
			out = append(out, toServingRuntime(&items[i], types.ScopeNamespaced))
		}
	}
	return out
}

// DeploymentPods returns the pods backing one InferenceService.
func (g *Gateway) DeploymentPods(ctx context.Context, key types.DeploymentKey) ([]types.Pod, error) {
	return g.pods(ctx, key.Namespace, map[string]string{InferenceServiceLabel: key.Name})
}

// Pods returns every pod of namespace, classified by type.
func (g *Gateway) Pods(ctx context.Context, namespace string) ([]types.Pod, error) {
	if namespace == "" {
		namespace = g.opts.PodNamespace
	}
	return g.pods(ctx, namespace, nil)
}

func (g *Gateway) pods(ctx context.Context, namespace string, labels map[string]string) ([]types.Pod, error) {
	items, err := g.cluster.ListPods(ctx, namespace, labels)
	if err != nil {
		return nil, err
	}
	out := make([]types.Pod, 0, len(items))
	for i := range items {
		out = append(out, toPod(&items[i]))
	}
	return out, nil
}
