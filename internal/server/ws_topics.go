package server

import (
	"github.com/kubenetlabs/mlops-console/internal/deployments"
	"github.com/kubenetlabs/mlops-console/internal/handlers"
	"github.com/kubenetlabs/mlops-console/internal/mode"
	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// WebSocket topics.
const (
	TopicDeployments = "deployments"
	TopicMode        = "mode"
	TopicNotices     = "notices"
	TopicSnapshots   = "snapshots"
)

// Topics lists every topic the hub publishes.
var Topics = []string{TopicDeployments, TopicMode, TopicNotices, TopicSnapshots}

// DeploymentEvents is the store surface forwarded to the deployments topic.
type DeploymentEvents interface {
	Subscribe(fn func(deployments.Event)) (unsubscribe func())
	List() []types.Deployment
	Selected() (types.Deployment, bool)
}

// ModeEvents delivers mode changes.
type ModeEvents interface {
	Subscribe(fn mode.Listener) (unsubscribe func())
}

// DeploymentUpdate is published after every store change. It carries the
// list and selection as of publication so views need not re-pull.
type DeploymentUpdate struct {
	Event deployments.Event `json:"event"`
	handlers.DeploymentsResponse
}

// Notice is a dismissible error message.
type Notice struct {
	Message string `json:"message"`
}

// SnapshotUpdate names a snapshot that was replaced.
type SnapshotUpdate struct {
	Name string `json:"name"`
}

// Notice publishes msg on the notices topic.
func (h *Hub) Notice(msg string) {
	h.Publish(TopicNotices, Notice{Message: msg})
}

// SnapshotChanged publishes the name of a replaced snapshot.
func (h *Hub) SnapshotChanged(name string) {
	h.Publish(TopicSnapshots, SnapshotUpdate{Name: name})
}

// RegisterTopics forwards store events and mode changes to the hub. Either
// source may be nil. The returned function removes both subscriptions.
func RegisterTopics(hub *Hub, store DeploymentEvents, modes ModeEvents) (unregister func()) {
	var unsubs []func()
	if store != nil {
		unsubs = append(unsubs, store.Subscribe(func(ev deployments.Event) {
			update := DeploymentUpdate{Event: ev}
			update.Deployments = store.List()
			if d, ok := store.Selected(); ok {
				update.Selected = &d
			}
			hub.Publish(TopicDeployments, update)
		}))
	}
	if modes != nil {
		unsubs = append(unsubs, modes.Subscribe(func(usesMockData bool) {
			hub.Publish(TopicMode, handlers.ModeResponse{
				UsesMockData: usesMockData,
				Source:       mode.SourceOf(mode.Static(usesMockData)),
			})
		}))
	}
	return func() {
		for _, fn := range unsubs {
			fn()
		}
	}
}
