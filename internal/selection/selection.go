// Package selection holds the active-node state of the graph view and derives
// the highlighted edges from it.
package selection

import (
	"fmt"

	"github.com/peoplegraph/peoplegraph/internal/graph"
)

// State is the selection cell. An empty ActiveNodeID means nothing is
// selected.
type State struct {
	ActiveNodeID string `json:"active"`
}

// EventKind identifies what the user interacted with.
type EventKind int

const (
	// NodeEvent is a click or hover on a node.
	NodeEvent EventKind = iota
	// BackgroundEvent is a click on empty canvas.
	BackgroundEvent
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case NodeEvent:
		return "node"
	case BackgroundEvent:
		return "background"
	default:
		return "unknown"
	}
}

// ParseEventKind converts a wire name into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "node":
		return NodeEvent, nil
	case "background":
		return BackgroundEvent, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q: must be node or background", s)
	}
}

// Event is a single user interaction.
type Event struct {
	Kind   EventKind
	NodeID string // Only meaningful for NodeEvent
}

// Rules configures the reducer.
type Rules struct {
	// PinnedNodeID is ignored on node interactions: selecting it never
	// changes the current selection.
	PinnedNodeID string
}

// Reduce returns the state after applying e. A background event always clears
// the selection. A node event selects the node unless it is already active or
// it is the pinned node.
func (r Rules) Reduce(s State, e Event) State {
	switch e.Kind {
	case BackgroundEvent:
		return State{}
	case NodeEvent:
		if e.NodeID == s.ActiveNodeID {
			return s
		}
		if r.PinnedNodeID != "" && e.NodeID == r.PinnedNodeID {
			return s
		}
		return State{ActiveNodeID: e.NodeID}
	default:
		return s
	}
}

// Controller owns one selection cell over an immutable graph. It is not safe
// for concurrent use.
type Controller struct {
	graph *graph.Graph
	rules Rules
	state State
}

// NewController creates a controller starting from initial.
func NewController(g *graph.Graph, rules Rules, initial State) *Controller {
	return &Controller{graph: g, rules: rules, state: initial}
}

// Dispatch applies e and recomputes the highlight set from scratch.
func (c *Controller) Dispatch(e Event) (State, graph.HighlightSet) {
	c.state = c.rules.Reduce(c.state, e)
	return c.state, graph.Highlight(c.graph, c.state.ActiveNodeID)
}
