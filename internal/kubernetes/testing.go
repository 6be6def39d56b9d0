package kubernetes

import (
	"k8s.io/client-go/dynamic"
	k8sclient "k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// NewForTest creates a Client from the provided clients.
// This is intended for use in tests with fake clients.
func NewForTest(c client.Client, dc dynamic.Interface, cs k8sclient.Interface) *Client {
	return &Client{client: c, dynamic: dc, clientset: cs}
}
