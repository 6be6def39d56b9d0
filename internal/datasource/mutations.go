package datasource

import (
	"context"
	"net/url"

	"github.com/kubenetlabs/mlops-console/internal/backend"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// CreateDeployment sends spec to the live serving endpoint. Mutations have
// no mock counterpart; mock records are synthesized by the store.
func (r *Router) CreateDeployment(ctx context.Context, spec types.DeploymentSpec) error {
	path, _ := Path(Deployments, mode.SourceLive)
	_, err := backend.Post[types.DeploymentEnvelope](ctx, r.client, path, spec)
	return err
}

// DeleteDeployment removes the deployment identified by key on the live
// serving endpoint.
func (r *Router) DeleteDeployment(ctx context.Context, key types.DeploymentKey) error {
	path, _ := Path(Deployments, mode.SourceLive)
	q := url.Values{"namespace": {key.Namespace}}
	return r.client.Delete(ctx, path+"/"+url.PathEscape(key.Name), q)
}
