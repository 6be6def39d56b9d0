package prometheus

import (
	"context"
	"fmt"
	"regexp"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Client wraps a Prometheus HTTP API client.
type Client struct {
	api promv1.API
	url string
}

// New creates a new Prometheus client pointing at the given URL.
func New(url string) (*Client, error) {
	client, err := promapi.NewClient(promapi.Config{Address: url})
	if err != nil {
		return nil, fmt.Errorf("create prometheus client: %w", err)
	}
	return &Client{api: promv1.NewAPI(client), url: url}, nil
}

// URL returns the Prometheus address.
func (c *Client) URL() string {
	return c.url
}

// PodUsage is the resource consumption of one predictor pod.
type PodUsage struct {
	Pod         string  `json:"pod"`
	CPUCores    float64 `json:"cpuCores"`
	MemoryBytes float64 `json:"memoryBytes"`
}

// DeploymentUsage holds serving metrics for one deployment.
type DeploymentUsage struct {
	Name           string     `json:"name"`
	Namespace      string     `json:"namespace"`
	RequestsPerSec float64    `json:"requestsPerSec"`
	Pods           []PodUsage `json:"pods"`
}

// predictorSelector matches the predictor containers of a deployment.
func predictorSelector(key types.DeploymentKey) string {
	return fmt.Sprintf(`namespace=%q,pod=~%q,container="kserve-container"`,
		key.Namespace, regexp.QuoteMeta(key.Name)+"-predictor.*")
}

// Usage returns per-pod CPU and memory consumption of the predictor
// containers and the request rate seen by the deployment. Missing series
// read as zero.
func (c *Client) Usage(ctx context.Context, end time.Time, key types.DeploymentKey) (*DeploymentUsage, error) {
	sel := predictorSelector(key)
	usage := &DeploymentUsage{Name: key.Name, Namespace: key.Namespace, Pods: []PodUsage{}}

	cpu, err := c.byPod(ctx, fmt.Sprintf(`sum by (pod) (rate(container_cpu_usage_seconds_total{%s}[5m]))`, sel), end)
	if err != nil {
		return nil, fmt.Errorf("query cpu usage: %w", err)
	}
	mem, err := c.byPod(ctx, fmt.Sprintf(`sum by (pod) (container_memory_working_set_bytes{%s})`, sel), end)
	if err != nil {
		return nil, fmt.Errorf("query memory usage: %w", err)
	}

	seen := map[string]int{}
	add := func(pod string) *PodUsage {
		if i, ok := seen[pod]; ok {
			return &usage.Pods[i]
		}
		seen[pod] = len(usage.Pods)
		usage.Pods = append(usage.Pods, PodUsage{Pod: pod})
		return &usage.Pods[len(usage.Pods)-1]
	}
	for _, s := range cpu {
		add(s.pod).CPUCores = s.value
	}
	for _, s := range mem {
		add(s.pod).MemoryBytes = s.value
	}

	rps := fmt.Sprintf(`sum(rate(revision_request_count{namespace_name=%q,revision_name=~%q}[5m]))`,
		key.Namespace, regexp.QuoteMeta(key.Name)+"-predictor.*")
	if val, err := c.queryScalar(ctx, rps, end); err == nil {
		usage.RequestsPerSec = val
	}
	return usage, nil
}

type podSample struct {
	pod   string
	value float64
}

func (c *Client) byPod(ctx context.Context, query string, end time.Time) ([]podSample, error) {
	result, _, err := c.api.Query(ctx, query, end)
	if err != nil {
		return nil, err
	}
	vec, ok := result.(model.Vector)
	if !ok {
		return nil, nil
	}
	out := make([]podSample, 0, len(vec))
	for _, s := range vec {
		out = append(out, podSample{pod: string(s.Metric["pod"]), value: float64(s.Value)})
	}
	return out, nil
}

// queryScalar executes a Prometheus query and returns a single scalar value.
func (c *Client) queryScalar(ctx context.Context, query string, t time.Time) (float64, error) {
	result, _, err := c.api.Query(ctx, query, t)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case model.Vector:
		if len(v) > 0 {
			return float64(v[0].Value), nil
		}
	case *model.Scalar:
		return float64(v.Value), nil
	}
	return 0, fmt.Errorf("no data for query: %s", query)
}
