package graph

import (
	"reflect"
	"testing"

	"github.com/peoplegraph/peoplegraph/internal/document"
)

func nodes(ids ...string) []document.Node {
	out := make([]document.Node, len(ids))
	for i, id := range ids {
		out[i] = document.Node{ID: id, Name: id, Type: "person", Value: 1}
	}
	return out
}

func links(pairs ...[2]string) []document.Link {
	out := make([]document.Link, len(pairs))
	for i, p := range pairs {
		out[i] = document.Link{Source: p[0], Target: p[1]}
	}
	return out
}

func TestBuild_SequenceIndex(t *testing.T) {
	g := Build(nodes("a", "b", "c"), links(
		[2]string{"a", "b"},
		[2]string{"b", "c"},
		[2]string{"c", "a"},
	))

	if len(g.Edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(g.Edges))
	}
	for i, e := range g.Edges {
		if e.Index != i {
			t.Errorf("edge %d has Index %d", i, e.Index)
		}
	}
}

func TestBuild_IncidentEdges(t *testing.T) {
	g := Build(nodes("a", "b", "c"), links(
		[2]string{"a", "b"},
		[2]string{"b", "c"},
	))

	tests := []struct {
		id   string
		want []int
	}{
		{"a", []int{0}},
		{"b", []int{0, 1}},
		{"c", []int{1}},
	}
	for _, tt := range tests {
		got := g.Node(tt.id).IncidentEdges
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("node %s IncidentEdges = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestBuild_DanglingEdges(t *testing.T) {
	g := Build(nodes("a", "b"), links(
		[2]string{"a", "ghost"},
		[2]string{"ghost", "phantom"},
		[2]string{"a", "b"},
	))

	if len(g.Edges) != 3 {
		t.Errorf("dangling edges dropped from Edges: got %d, want 3", len(g.Edges))
	}
	if got := g.Node("a").IncidentEdges; !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("a IncidentEdges = %v, want [0 2]", got)
	}
	if got := g.Node("b").IncidentEdges; !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("b IncidentEdges = %v, want [2]", got)
	}
	if g.Node("ghost") != nil {
		t.Error("dangling endpoint should not become a node")
	}
}

func TestBuild_SelfLoop(t *testing.T) {
	g := Build(nodes("x"), links([2]string{"x", "x"}))

	if got := g.Node("x").IncidentEdges; !reflect.DeepEqual(got, []int{0, 0}) {
		t.Errorf("x IncidentEdges = %v, want [0 0]", got)
	}
	if g.Degree("x") != 2 {
		t.Errorf("Degree(x) = %d, want 2", g.Degree("x"))
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	in := nodes("a", "b")
	ls := links([2]string{"a", "b"})
	before := append([]document.Node(nil), in...)

	Build(in, ls)

	if !reflect.DeepEqual(in, before) {
		t.Error("Build modified its node input")
	}
	for _, n := range in {
		if n.Links != nil {
			t.Errorf("node %s gained links", n.ID)
		}
	}
}

func TestBuild_CopiesFields(t *testing.T) {
	g := Build([]document.Node{{
		ID: "andrew huberman", SID: "sid-1", Name: "Andrew Huberman",
		Type: "person", DocID: "doc-1", Value: 900,
	}, {
		ID: "sleep", Name: "Sleep", Type: "topic",
	}}, nil)

	n := g.Node("andrew huberman")
	if n.SID != "sid-1" || n.Name != "Andrew Huberman" || n.DocID != "doc-1" || n.Value != 900 {
		t.Errorf("fields not copied: %+v", n)
	}
	if n.Kind != KindPerson {
		t.Errorf("Kind = %v, want person", n.Kind)
	}
	if g.Node("sleep").Kind != KindOther {
		t.Errorf("Kind = %v, want other", g.Node("sleep").Kind)
	}
	if len(g.Nodes) != 2 || g.Nodes[0].ID != "andrew huberman" {
		t.Errorf("Nodes order not preserved")
	}
}

func TestNeighbors(t *testing.T) {
	g := Build(nodes("a", "b", "c"), links(
		[2]string{"a", "b"},
		[2]string{"c", "a"},
		[2]string{"a", "b"},
		[2]string{"a", "ghost"},
	))

	got := g.Neighbors("a")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors(a) = %v, want %v", got, want)
	}
	if g.Neighbors("missing") != nil {
		t.Error("Neighbors of unknown id should be nil")
	}
}

func TestEdgeOther(t *testing.T) {
	e := Edge{SourceID: "a", TargetID: "b"}
	if e.Other("a") != "b" || e.Other("b") != "a" {
		t.Errorf("Other() wrong for %+v", e)
	}
	loop := Edge{SourceID: "x", TargetID: "x"}
	if loop.Other("x") != "x" {
		t.Errorf("Other() on self-loop = %q", loop.Other("x"))
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		kind  NodeKind
		value float64
		want  float64
	}{
		{KindOther, 1000, 6},
		{KindPerson, 1, 18},
		{KindPerson, 0, 24},
		{KindPerson, 2, 24},
		{KindPerson, 9, 24},
		{KindPerson, 10, 32},
		{KindPerson, 59, 32},
		{KindPerson, 60, 40},
		{KindPerson, 119, 40},
		{KindPerson, 120, 48},
		{KindPerson, 799, 48},
		{KindPerson, 800, 64},
	}
	for _, tt := range tests {
		if got := Size(tt.kind, tt.value); got != tt.want {
			t.Errorf("Size(%v, %v) = %v, want %v", tt.kind, tt.value, got, tt.want)
		}
	}
}
