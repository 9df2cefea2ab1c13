package graph

import "sort"

// HighlightSet is a set of edge indices.
type HighlightSet map[int]struct{}

// Has reports whether edge index i is highlighted.
func (h HighlightSet) Has(i int) bool {
	_, ok := h[i]
	return ok
}

// Len returns the number of highlighted edges.
func (h HighlightSet) Len() int {
	return len(h)
}

// Sorted returns the highlighted edge indices in ascending order.
func (h HighlightSet) Sorted() []int {
	out := make([]int, 0, len(h))
	for i := range h {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Highlight returns the edges of activeID's ego network: every edge incident
// to the active node plus every edge incident to one of its neighbours. An
// empty or unknown activeID yields an empty set.
//
// Cost is proportional to the degree of the active node plus the degrees of
// its neighbours; the graph is only read.
func Highlight(g *Graph, activeID string) HighlightSet {
	result := make(HighlightSet)
	if g == nil || activeID == "" {
		return result
	}

	active := g.NodesByID[activeID]
	if active == nil {
		return result
	}

	for _, ei := range active.IncidentEdges {
		result[ei] = struct{}{}

		neighbor := g.NodesByID[g.Edges[ei].Other(activeID)]
		if neighbor == nil {
			continue
		}
		for _, nei := range neighbor.IncidentEdges {
			result[nei] = struct{}{}
		}
	}

	return result
}
