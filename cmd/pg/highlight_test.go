package main

import (
	"reflect"
	"testing"

	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"github.com/peoplegraph/peoplegraph/internal/selection"
)

func TestBuildHighlightResult(t *testing.T) {
	g := graph.Build(
		[]document.Node{{ID: "host"}, {ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]document.Link{
			{Source: "host", Target: "a"}, // 0
			{Source: "a", Target: "b"},    // 1
			{Source: "b", Target: "c"},    // 2
			{Source: "c", Target: "gone"}, // 3
		},
	)
	rules := selection.Rules{PinnedNodeID: "host"}

	tests := []struct {
		id            string
		wantActive    string
		wantHighlight []int
		wantNeighbors []string
	}{
		{"a", "a", []int{0, 1, 2}, []string{"host", "b"}},
		{"c", "c", []int{1, 2, 3}, []string{"b"}},
		{"host", "", []int{}, []string{}},
		{"nobody", "", []int{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := buildHighlightResult(g, rules, tt.id)

			if got.Active != tt.wantActive {
				t.Errorf("Active = %q, want %q", got.Active, tt.wantActive)
			}
			if !reflect.DeepEqual(got.Highlight, tt.wantHighlight) {
				t.Errorf("Highlight = %v, want %v", got.Highlight, tt.wantHighlight)
			}
			if !reflect.DeepEqual(got.Neighbors, tt.wantNeighbors) {
				t.Errorf("Neighbors = %v, want %v", got.Neighbors, tt.wantNeighbors)
			}
			if len(got.Edges) != len(got.Highlight) {
				t.Errorf("got %d edges for %d indices", len(got.Edges), len(got.Highlight))
			}
			for i, e := range got.Edges {
				if e.Index != got.Highlight[i] {
					t.Errorf("Edges[%d].Index = %d, want %d", i, e.Index, got.Highlight[i])
				}
			}
		})
	}
}
