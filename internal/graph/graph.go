// Package graph builds the adjacency index over a people graph document and
// computes the highlighted ego network of a selected node.
package graph

import "github.com/peoplegraph/peoplegraph/internal/document"

// Node is an indexed graph node.
type Node struct {
	ID    string
	SID   string
	Name  string
	Kind  NodeKind
	Type  string // Raw type string from the document
	DocID string
	Value float64

	// IncidentEdges holds positions in Graph.Edges of every edge touching
	// this node, in edge order. A self-loop appears twice.
	IncidentEdges []int
}

// Edge is an indexed edge. Index is its position in the source document's
// link list and the only identity used for highlighting.
type Edge struct {
	SourceID string
	TargetID string
	Index    int
}

// Other returns the endpoint of e that is not id. For a self-loop it
// returns id.
func (e Edge) Other(id string) string {
	if e.SourceID == id {
		return e.TargetID
	}
	return e.SourceID
}

// Graph is an immutable adjacency index. It must not be modified after Build
// returns; renderers get their own copy (see viz.FromGraph).
type Graph struct {
	NodesByID map[string]*Node
	Nodes     []*Node // Document order
	Edges     []Edge
}

// Build indexes nodes and links in two passes. Links naming an unknown node
// are kept in Edges but contribute nothing to that endpoint's adjacency.
// The input slices are not modified.
func Build(nodes []document.Node, links []document.Link) *Graph {
	g := &Graph{
		NodesByID: make(map[string]*Node, len(nodes)),
		Nodes:     make([]*Node, 0, len(nodes)),
		Edges:     make([]Edge, len(links)),
	}

	for _, n := range nodes {
		node := &Node{
			ID:    n.ID,
			SID:   n.SID,
			Name:  n.Name,
			Kind:  ParseKind(n.Type),
			Type:  n.Type,
			DocID: n.DocID,
			Value: n.Value,
		}
		g.NodesByID[n.ID] = node
		g.Nodes = append(g.Nodes, node)
	}

	for i, l := range links {
		g.Edges[i] = Edge{SourceID: l.Source, TargetID: l.Target, Index: i}

		if source, ok := g.NodesByID[l.Source]; ok {
			source.IncidentEdges = append(source.IncidentEdges, i)
		}
		// Not an else: a self-loop is referenced from both sides.
		if target, ok := g.NodesByID[l.Target]; ok {
			target.IncidentEdges = append(target.IncidentEdges, i)
		}
	}

	return g
}

// FromDocument builds the index for a whole document.
func FromDocument(doc *document.Document) *Graph {
	return Build(doc.Nodes, doc.Links)
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.NodesByID[id]
}

// Degree returns the number of incident edge references of id (self-loops
// count twice). Unknown ids have degree 0.
func (g *Graph) Degree(id string) int {
	n := g.NodesByID[id]
	if n == nil {
		return 0
	}
	return len(n.IncidentEdges)
}

// Neighbors returns the distinct ids adjacent to id that exist in the graph,
// in order of first appearance in its incident edges.
func (g *Graph) Neighbors(id string) []string {
	n := g.NodesByID[id]
	if n == nil {
		return nil
	}

	seen := make(map[string]bool, len(n.IncidentEdges))
	var neighbors []string
	for _, ei := range n.IncidentEdges {
		other := g.Edges[ei].Other(id)
		if seen[other] {
			continue
		}
		seen[other] = true
		if _, ok := g.NodesByID[other]; ok {
			neighbors = append(neighbors, other)
		}
	}
	return neighbors
}

// IsEmpty returns true if the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}
