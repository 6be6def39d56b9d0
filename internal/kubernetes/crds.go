package kubernetes

import (
	"context"
	"log/slog"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CRD names of the KServe resources the gateway reads.
const (
	InferenceServiceCRD      = "inferenceservices.serving.kserve.io"
	ServingRuntimeCRD        = "servingruntimes.serving.kserve.io"
	ClusterServingRuntimeCRD = "clusterservingruntimes.serving.kserve.io"
)

// Capabilities reports which KServe CRDs are installed in the cluster.
type Capabilities struct {
	InferenceServices      bool `json:"inferenceServices"`
	ServingRuntimes        bool `json:"servingRuntimes"`
	ClusterServingRuntimes bool `json:"clusterServingRuntimes"`
}

// Installed reports whether InferenceServices can be served at all.
func (c Capabilities) Installed() bool {
	return c.InferenceServices
}

// DetectKServe checks for the KServe CRDs.
func (c *Client) DetectKServe(ctx context.Context) Capabilities {
	return Capabilities{
		InferenceServices:      c.hasCRD(ctx, InferenceServiceCRD),
		ServingRuntimes:        c.hasCRD(ctx, ServingRuntimeCRD),
		ClusterServingRuntimes: c.hasCRD(ctx, ClusterServingRuntimeCRD),
	}
}

func (c *Client) hasCRD(ctx context.Context, name string) bool {
	var crd apiextensionsv1.CustomResourceDefinition
	if err := c.client.Get(ctx, client.ObjectKey{Name: name}, &crd); err != nil {
		slog.Debug("CRD not found", "crd", name, "error", err)
		return false
	}
	return true
}
