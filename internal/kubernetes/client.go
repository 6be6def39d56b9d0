package kubernetes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/dynamic"
	k8sclient "k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Client bundles the clients the serving gateway needs: a controller-runtime
// client for typed core objects and CRD discovery, a dynamic client for the
// KServe custom resources and a clientset for pod log streams.
type Client struct {
	client    client.Client
	dynamic   dynamic.Interface
	clientset k8sclient.Interface
}

// NewScheme returns the scheme used by the typed client.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("adding client-go scheme: %w", err)
	}
	if err := apiextensionsv1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("adding apiextensions scheme: %w", err)
	}
	return scheme, nil
}

// New creates a Kubernetes client.
// It tries in-cluster config first, then falls back to the provided kubeconfig path,
// KUBECONFIG env, or ~/.kube/config. contextName selects a kubeconfig context
// when set.
func New(kubeconfig, contextName string) (*Client, error) {
	scheme, err := NewScheme()
	if err != nil {
		return nil, err
	}

	cfg, err := resolveConfig(kubeconfig, contextName)
	if err != nil {
		return nil, fmt.Errorf("resolving kubeconfig: %w", err)
	}

	c, err := client.New(cfg, client.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("creating controller-runtime client: %w", err)
	}
	dc, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}
	cs, err := k8sclient.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating clientset: %w", err)
	}

	slog.Info("kubernetes client initialized", "host", cfg.Host, "context", contextName)
	return &Client{client: c, dynamic: dc, clientset: cs}, nil
}

// DynamicClient returns the client used for KServe custom resources.
func (c *Client) DynamicClient() dynamic.Interface {
	return c.dynamic
}

func resolveConfig(kubeconfig, contextName string) (*rest.Config, error) {
	// A named context always comes from a kubeconfig file.
	if contextName != "" {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfig != "" {
			rules.ExplicitPath = kubeconfig
		}
		overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}
		slog.Info("using kubeconfig context", "path", kubeconfig, "context", contextName)
		return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	}

	// Try in-cluster first.
	if cfg, err := rest.InClusterConfig(); err == nil {
		slog.Info("using in-cluster kubernetes config")
		return cfg, nil
	}

	// Explicit path.
	if kubeconfig != "" {
		slog.Info("using kubeconfig", "path", kubeconfig)
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}

	// KUBECONFIG env.
	if env := os.Getenv("KUBECONFIG"); env != "" {
		slog.Info("using KUBECONFIG env", "path", env)
		return clientcmd.BuildConfigFromFlags("", env)
	}

	// Default ~/.kube/config.
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	path := filepath.Join(home, ".kube", "config")
	slog.Info("using default kubeconfig", "path", path)
	return clientcmd.BuildConfigFromFlags("", path)
}
