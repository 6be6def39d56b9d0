package kubernetes

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// KServe resource coordinates.
var (
	InferenceServiceGVR = schema.GroupVersionResource{
		Group:    "serving.kserve.io",
		Version:  "v1beta1",
		Resource: "inferenceservices",
	}
	ServingRuntimeGVR = schema.GroupVersionResource{
		Group:    "serving.kserve.io",
		Version:  "v1alpha1",
		Resource: "servingruntimes",
	}
	ClusterServingRuntimeGVR = schema.GroupVersionResource{
		Group:    "serving.kserve.io",
		Version:  "v1alpha1",
		Resource: "clusterservingruntimes",
	}
)

// ListInferenceServices returns the InferenceServices of namespace.
func (c *Client) ListInferenceServices(ctx context.Context, namespace string) ([]unstructured.Unstructured, error) {
	list, err := c.dynamic.Resource(InferenceServiceGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing inferenceservices in %s: %w", namespace, err)
	}
	return list.Items, nil
}

// GetInferenceService returns a single InferenceService by namespace and name.
func (c *Client) GetInferenceService(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	obj, err := c.dynamic.Resource(InferenceServiceGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting inferenceservice %s/%s: %w", namespace, name, err)
	}
	return obj, nil
}

// CreateInferenceService creates obj and returns the server-populated object.
func (c *Client) CreateInferenceService(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	created, err := c.dynamic.Resource(InferenceServiceGVR).Namespace(obj.GetNamespace()).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("creating inferenceservice %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
	}
	return created, nil
}

// DeleteInferenceService deletes an InferenceService by namespace and name.
func (c *Client) DeleteInferenceService(ctx context.Context, namespace, name string) error {
	if err := c.dynamic.Resource(InferenceServiceGVR).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("deleting inferenceservice %s/%s: %w", namespace, name, err)
	}
	return nil
}

// ListClusterServingRuntimes returns the cluster-scoped serving runtimes.
func (c *Client) ListClusterServingRuntimes(ctx context.Context) ([]unstructured.Unstructured, error) {
	list, err := c.dynamic.Resource(ClusterServingRuntimeGVR).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing clusterservingruntimes: %w", err)
	}
	return list.Items, nil
}

// ListServingRuntimes returns the serving runtimes of namespace.
func (c *Client) ListServingRuntimes(ctx context.Context, namespace string) ([]unstructured.Unstructured, error) {
	list, err := c.dynamic.Resource(ServingRuntimeGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing servingruntimes in %s: %w", namespace, err)
	}
	return list.Items, nil
}
