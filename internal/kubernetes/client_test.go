package kubernetes

import (
	"context"
	"testing"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	fakedynamic "k8s.io/client-go/dynamic/fake"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func newFakeDynamicClient(objects ...runtime.Object) *fakedynamic.FakeDynamicClient {
	return fakedynamic.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), map[schema.GroupVersionResource]string{
		InferenceServiceGVR:      "InferenceServiceList",
		ServingRuntimeGVR:        "ServingRuntimeList",
		ClusterServingRuntimeGVR: "ClusterServingRuntimeList",
	}, objects...)
}

func newCRD(name string) *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: "serving.kserve.io",
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Plural: "inferenceservices",
				Kind:   "InferenceService",
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				{Name: "v1beta1", Served: true, Storage: true},
			},
		},
	}
}

func newTestClient(t *testing.T, objs []runtime.Object, dynObjs ...runtime.Object) *Client {
	t.Helper()
	scheme, err := NewScheme()
	if err != nil {
		t.Fatalf("NewScheme: %v", err)
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithRuntimeObjects(objs...).Build()
	return NewForTest(c, newFakeDynamicClient(dynObjs...), k8sfake.NewClientset())
}

func TestDetectKServe_NotInstalled(t *testing.T) {
	c := newTestClient(t, nil)

	caps := c.DetectKServe(context.Background())
	if caps.Installed() || caps.ServingRuntimes || caps.ClusterServingRuntimes {
		t.Errorf("expected no capabilities, got %+v", caps)
	}
}

func TestDetectKServe_Installed(t *testing.T) {
	c := newTestClient(t, []runtime.Object{newCRD(InferenceServiceCRD), newCRD(ServingRuntimeCRD)})

	caps := c.DetectKServe(context.Background())
	if !caps.Installed() || !caps.ServingRuntimes {
		t.Errorf("expected inferenceservices and servingruntimes, got %+v", caps)
	}
	if caps.ClusterServingRuntimes {
		t.Error("clusterservingruntimes should not be detected")
	}
}

func TestInferenceServiceCRUD(t *testing.T) {
	c := newTestClient(t, nil)
	ctx := context.Background()

	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "serving.kserve.io/v1beta1",
		"kind":       "InferenceService",
		"metadata":   map[string]any{"name": "churn-model", "namespace": "bankchurn-kserve-2"},
		"spec":       map[string]any{"predictor": map[string]any{"minReplicas": int64(1)}},
	}}
	if _, err := c.CreateInferenceService(ctx, obj); err != nil {
		t.Fatalf("CreateInferenceService: %v", err)
	}

	items, err := c.ListInferenceServices(ctx, "bankchurn-kserve-2")
	if err != nil {
		t.Fatalf("ListInferenceServices: %v", err)
	}
	if len(items) != 1 || items[0].GetName() != "churn-model" {
		t.Fatalf("unexpected items %+v", items)
	}

	if err := c.DeleteInferenceService(ctx, "bankchurn-kserve-2", "churn-model"); err != nil {
		t.Fatalf("DeleteInferenceService: %v", err)
	}
	if _, err := c.GetInferenceService(ctx, "bankchurn-kserve-2", "churn-model"); err == nil {
		t.Error("expected error after delete")
	}
}

func TestListPodsByLabel(t *testing.T) {
	pods := []runtime.Object{
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{
			Name: "churn-model-predictor-0", Namespace: "bankchurn-kserve-2",
			Labels: map[string]string{"serving.kserve.io/inferenceservice": "churn-model"},
		}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "mlflow-server-0", Namespace: "bankchurn-kserve-2"}},
	}
	c := newTestClient(t, pods)
	ctx := context.Background()

	all, err := c.ListPods(ctx, "bankchurn-kserve-2", nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListPods: %d, %v", len(all), err)
	}
	selected, err := c.ListPods(ctx, "bankchurn-kserve-2", map[string]string{"serving.kserve.io/inferenceservice": "churn-model"})
	if err != nil || len(selected) != 1 {
		t.Fatalf("ListPods with labels: %d, %v", len(selected), err)
	}
}

func TestPodLogs(t *testing.T) {
	c := newTestClient(t, nil)

	logs, err := c.PodLogs(context.Background(), "default", "churn-model-predictor-0", "kserve-container", 100)
	if err != nil {
		t.Fatalf("PodLogs: %v", err)
	}
	if logs != "fake logs" {
		t.Errorf("unexpected logs %q", logs)
	}
}
