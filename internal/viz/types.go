// Package viz turns an indexed people graph into the force-layout page and
// the JSON the page renders.
package viz

import "github.com/peoplegraph/peoplegraph/internal/graph"

// GraphData is the renderer's copy of the graph. The force layout mutates the
// objects it is given, so this is rebuilt per response and never shared with
// the IndexedGraph.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a renderable node.
type Node struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Kind   string  `json:"kind"` // "person" or "other"
	DocID  string  `json:"docId,omitempty"`
	Value  float64 `json:"value"`
	Size   float64 `json:"size"`
	Avatar string  `json:"avatar,omitempty"` // Image URL; empty for non-person nodes
}

// Link is a renderable link. Seq is the link's position in the source
// document and matches the indices in a highlight set. It is not called
// "index": the force layout overwrites link.index with the array position,
// which differs once dangling links are left out.
type Link struct {
	Seq    int    `json:"seq"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// AvatarFunc returns the image URL for a person node.
type AvatarFunc func(n *graph.Node) string

// FromGraph builds a fresh renderer copy of g. Links with a missing endpoint
// are left out of the copy, since the layout cannot place them, but the
// remaining links keep their original position as Seq.
func FromGraph(g *graph.Graph, avatar AvatarFunc) *GraphData {
	data := &GraphData{
		Nodes: make([]Node, 0, len(g.Nodes)),
		Links: make([]Link, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		node := Node{
			ID:    n.ID,
			Name:  n.Name,
			Type:  n.Type,
			Kind:  n.Kind.String(),
			DocID: n.DocID,
			Value: n.Value,
			Size:  n.Size(),
		}
		if n.Kind == graph.KindPerson && avatar != nil {
			node.Avatar = avatar(n)
		}
		data.Nodes = append(data.Nodes, node)
	}

	for _, e := range g.Edges {
		if g.Node(e.SourceID) == nil || g.Node(e.TargetID) == nil {
			continue
		}
		data.Links = append(data.Links, Link{Seq: e.Index, Source: e.SourceID, Target: e.TargetID})
	}

	return data
}
