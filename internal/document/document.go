// Package document defines the wire format of the people graph document and
// loads it from disk or over HTTP.
package document

import (
	"errors"
	"fmt"
)

// Node is a person (or other entity) as it appears in the document.
type Node struct {
	ID    string  `json:"id"`
	SID   string  `json:"sid,omitempty"` // Avatar key; empty means no image
	Name  string  `json:"name"`
	Type  string  `json:"type"` // "person" or anything else
	DocID string  `json:"docId"`
	Value float64 `json:"value"`

	// Links is accepted for compatibility with documents that were saved
	// after being indexed. It is never read.
	Links []Link `json:"links,omitempty"`
}

// Link is an edge between two node ids.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Document is the complete graph payload.
type Document struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Validation errors.
var (
	ErrEmptyNodeID   = errors.New("node id is required")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrEmptySource   = errors.New("link source is required")
	ErrEmptyTarget   = errors.New("link target is required")
)

// Validate checks the structural preconditions the rest of the program relies
// on. Links naming unknown nodes are not an error.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrEmptyNodeID)
		}
		if seen[n.ID] {
			return fmt.Errorf("node %d (%s): %w", i, n.ID, ErrDuplicateNode)
		}
		seen[n.ID] = true
	}
	for i, l := range d.Links {
		if l.Source == "" {
			return fmt.Errorf("link %d: %w", i, ErrEmptySource)
		}
		if l.Target == "" {
			return fmt.Errorf("link %d: %w", i, ErrEmptyTarget)
		}
	}
	return nil
}

// NodeIDs returns the set of node ids in the document.
func (d *Document) NodeIDs() map[string]bool {
	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		ids[n.ID] = true
	}
	return ids
}
