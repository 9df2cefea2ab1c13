package selection

import (
	"reflect"
	"testing"

	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/peoplegraph/peoplegraph/internal/graph"
)

func TestReduce(t *testing.T) {
	rules := Rules{PinnedNodeID: "andrew huberman"}

	tests := []struct {
		name  string
		state State
		event Event
		want  State
	}{
		{
			name:  "select from empty",
			state: State{},
			event: Event{Kind: NodeEvent, NodeID: "a"},
			want:  State{ActiveNodeID: "a"},
		},
		{
			name:  "switch selection",
			state: State{ActiveNodeID: "a"},
			event: Event{Kind: NodeEvent, NodeID: "b"},
			want:  State{ActiveNodeID: "b"},
		},
		{
			name:  "reselect active keeps it",
			state: State{ActiveNodeID: "a"},
			event: Event{Kind: NodeEvent, NodeID: "a"},
			want:  State{ActiveNodeID: "a"},
		},
		{
			name:  "pinned node ignored",
			state: State{ActiveNodeID: "a"},
			event: Event{Kind: NodeEvent, NodeID: "andrew huberman"},
			want:  State{ActiveNodeID: "a"},
		},
		{
			name:  "pinned node ignored from empty",
			state: State{},
			event: Event{Kind: NodeEvent, NodeID: "andrew huberman"},
			want:  State{},
		},
		{
			name:  "background clears",
			state: State{ActiveNodeID: "a"},
			event: Event{Kind: BackgroundEvent},
			want:  State{},
		},
		{
			name:  "unknown node still selected",
			state: State{},
			event: Event{Kind: NodeEvent, NodeID: "ghost"},
			want:  State{ActiveNodeID: "ghost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.Reduce(tt.state, tt.event); got != tt.want {
				t.Errorf("Reduce() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReduce_NoPin(t *testing.T) {
	got := Rules{}.Reduce(State{}, Event{Kind: NodeEvent, NodeID: "andrew huberman"})
	if got.ActiveNodeID != "andrew huberman" {
		t.Errorf("without a pin any node is selectable, got %+v", got)
	}
}

func TestParseEventKind(t *testing.T) {
	for _, k := range []EventKind{NodeEvent, BackgroundEvent} {
		got, err := ParseEventKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseEventKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseEventKind("hover"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestController(t *testing.T) {
	g := graph.Build(
		[]document.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}},
		[]document.Link{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}, {Source: "C", Target: "D"}},
	)
	c := NewController(g, Rules{PinnedNodeID: "D"}, State{})

	state, h := c.Dispatch(Event{Kind: NodeEvent, NodeID: "B"})
	if state.ActiveNodeID != "B" {
		t.Errorf("active = %q, want B", state.ActiveNodeID)
	}
	if !reflect.DeepEqual(h.Sorted(), []int{0, 1, 2}) {
		t.Errorf("highlight = %v, want [0 1 2]", h.Sorted())
	}

	state, h = c.Dispatch(Event{Kind: NodeEvent, NodeID: "D"})
	if state.ActiveNodeID != "B" || h.Len() != 3 {
		t.Errorf("pinned click changed selection: %+v %v", state, h.Sorted())
	}

	state, h = c.Dispatch(Event{Kind: NodeEvent, NodeID: "A"})
	if state.ActiveNodeID != "A" || !reflect.DeepEqual(h.Sorted(), []int{0, 1}) {
		t.Errorf("after A: %+v %v", state, h.Sorted())
	}

	state, h = c.Dispatch(Event{Kind: BackgroundEvent})
	if state.ActiveNodeID != "" || h.Len() != 0 {
		t.Errorf("background did not clear: %+v %v", state, h.Sorted())
	}
}

func TestController_InitialState(t *testing.T) {
	g := graph.Build(
		[]document.Node{{ID: "A"}, {ID: "B"}},
		[]document.Link{{Source: "A", Target: "B"}},
	)
	c := NewController(g, Rules{}, State{ActiveNodeID: "A"})

	// Clicking the active node keeps it and its highlight
	state, h := c.Dispatch(Event{Kind: NodeEvent, NodeID: "A"})
	if state.ActiveNodeID != "A" || !reflect.DeepEqual(h.Sorted(), []int{0}) {
		t.Errorf("re-click = %+v %v, want A [0]", state, h.Sorted())
	}
}
