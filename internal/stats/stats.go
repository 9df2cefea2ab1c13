// Package stats computes summary statistics over an indexed people graph.
package stats

import (
	"sort"

	"github.com/peoplegraph/peoplegraph/internal/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// PageRank parameters.
const (
	Damping   = 0.85
	Tolerance = 1e-6
)

// RankedNode is a node with a score.
type RankedNode struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Summary describes the shape of a graph.
type Summary struct {
	Nodes          int          `json:"nodes"`
	People         int          `json:"people"`
	Edges          int          `json:"edges"`
	DanglingEdges  int          `json:"dangling_edges"`
	SelfLoops      int          `json:"self_loops"`
	Components     int          `json:"components"`
	LargestCluster int          `json:"largest_component"`
	Isolated       int          `json:"isolated"`
	TopByDegree    []RankedNode `json:"top_by_degree"`
	TopByPageRank  []RankedNode `json:"top_by_pagerank"`
}

// Compute summarises g, listing the top n nodes by degree and by PageRank.
func Compute(g *graph.Graph, n int) Summary {
	s := Summary{
		Nodes: len(g.Nodes),
		Edges: len(g.Edges),
	}

	for _, node := range g.Nodes {
		if node.Kind == graph.KindPerson {
			s.People++
		}
		if len(node.IncidentEdges) == 0 {
			s.Isolated++
		}
	}

	undirected, directed, ids := toGonum(g)
	for _, e := range g.Edges {
		_, srcOK := g.NodesByID[e.SourceID]
		_, tgtOK := g.NodesByID[e.TargetID]
		if !srcOK || !tgtOK {
			s.DanglingEdges++
		}
		if e.SourceID == e.TargetID {
			s.SelfLoops++
		}
	}

	components := topo.ConnectedComponents(undirected)
	s.Components = len(components)
	for _, c := range components {
		if len(c) > s.LargestCluster {
			s.LargestCluster = len(c)
		}
	}

	degree := make(map[string]float64, len(g.Nodes))
	for _, node := range g.Nodes {
		degree[node.ID] = float64(len(node.IncidentEdges))
	}
	s.TopByDegree = top(g, degree, n)

	rank := make(map[string]float64, len(g.Nodes))
	if len(g.Nodes) > 0 {
		for gid, score := range network.PageRank(directed, Damping, Tolerance) {
			rank[ids[gid]] = score
		}
	}
	s.TopByPageRank = top(g, rank, n)

	return s
}

// toGonum converts g into gonum graphs keyed by node position. Dangling edges
// and self-loops are left out since gonum's simple graphs reject them.
func toGonum(g *graph.Graph) (*simple.UndirectedGraph, *simple.DirectedGraph, map[int64]string) {
	undirected := simple.NewUndirectedGraph()
	directed := simple.NewDirectedGraph()
	pos := make(map[string]int64, len(g.Nodes))
	ids := make(map[int64]string, len(g.Nodes))

	for i, node := range g.Nodes {
		if _, dup := pos[node.ID]; dup {
			continue
		}
		id := int64(i)
		pos[node.ID] = id
		ids[id] = node.ID
		undirected.AddNode(simple.Node(id))
		directed.AddNode(simple.Node(id))
	}

	for _, e := range g.Edges {
		from, okFrom := pos[e.SourceID]
		to, okTo := pos[e.TargetID]
		if !okFrom || !okTo || from == to {
			continue
		}
		undirected.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	return undirected, directed, ids
}

// top returns the n highest scoring nodes, ties broken by id.
func top(g *graph.Graph, scores map[string]float64, n int) []RankedNode {
	ranked := make([]RankedNode, 0, len(scores))
	for id, score := range scores {
		name := id
		if node := g.Node(id); node != nil && node.Name != "" {
			name = node.Name
		}
		ranked = append(ranked, RankedNode{ID: id, Name: name, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
