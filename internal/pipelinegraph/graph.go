// Package pipelinegraph turns a pipeline's flat step and dependency lists
// into a positioned directed graph for rendering.
package pipelinegraph

import (
	"strings"

	"github.com/kubenetlabs/mlops-console/pkg/types"
)

// Layout constants.
const (
	HorizontalSpacing = 250
	NodeY             = 100
	ArrowSize         = 20
	NodeType          = "pipelineNode"
)

// NodeClass is the visual classification of a step.
type NodeClass string

const (
	ClassCompleted NodeClass = "completed"
	ClassRunning   NodeClass = "running"
	ClassFailed    NodeClass = "failed"
	ClassWaiting   NodeClass = "waiting"
)

// Position is a node's canvas offset.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NodeData is the payload rendered inside a node.
type NodeData struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// Node is a positioned pipeline step.
type Node struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Data      NodeData  `json:"data"`
	Position  Position  `json:"position"`
	ClassName NodeClass `json:"className"`
}

// Marker terminates an edge.
type Marker struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Edge is a directed, arrow-terminated dependency.
type Edge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Animated  bool   `json:"animated"`
	MarkerEnd Marker `json:"markerEnd"`
}

// Graph is the renderable pipeline graph. It is rebuilt on every fetch.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Classify maps a step status to its visual class, ignoring case.
func Classify(status string) NodeClass {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed":
		return ClassCompleted
	case "running":
		return ClassRunning
	case "failed":
		return ClassFailed
	default:
		return ClassWaiting
	}
}

// Build places the Nth step at x = N*HorizontalSpacing on a fixed row and
// gives every dependency the identity "source-target". No cycle detection
// or endpoint validation is performed; dangling edges pass through.
func Build(steps []types.PipelineStep, deps []types.PipelineDependency) Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(steps)),
		Edges: make([]Edge, 0, len(deps)),
	}
	for i, st := range steps {
		g.Nodes = append(g.Nodes, Node{
			ID:        st.ID,
			Type:      NodeType,
			Data:      NodeData{Label: st.Name, Kind: st.Type, Status: st.Status},
			Position:  Position{X: i * HorizontalSpacing, Y: NodeY},
			ClassName: Classify(st.Status),
		})
	}
	for _, d := range deps {
		g.Edges = append(g.Edges, Edge{
			ID:        d.Source + "-" + d.Target,
			Source:    d.Source,
			Target:    d.Target,
			Animated:  true,
			MarkerEnd: Marker{Type: "arrowclosed", Width: ArrowSize, Height: ArrowSize},
		})
	}
	return g
}

// FromData builds the graph of a raw pipeline graph payload.
func FromData(data *types.PipelineGraphData) Graph {
	if data == nil {
		return Build(nil, nil)
	}
	return Build(data.Nodes, data.Edges)
}
