package graph

// NodeKind distinguishes avatar-bearing person nodes from everything else.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindPerson
)

// KindPersonType is the document type string for people.
const KindPersonType = "person"

// ParseKind maps a document type string to a NodeKind.
func ParseKind(s string) NodeKind {
	if s == KindPersonType {
		return KindPerson
	}
	return KindOther
}

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case KindPerson:
		return "person"
	default:
		return "other"
	}
}

// Node sizes in canvas units.
const (
	OtherSize       = 6
	PlaceholderSize = 8
)

// Size returns the rendered diameter of a node. People grow in steps with
// their mention count; other nodes are a fixed small dot.
func Size(kind NodeKind, value float64) float64 {
	switch kind {
	case KindPerson:
		switch {
		case value == 1:
			return 18
		case value < 10:
			return 24
		case value < 60:
			return 32
		case value < 120:
			return 40
		case value < 800:
			return 48
		default:
			return 64
		}
	default:
		return OtherSize
	}
}

// Size returns the rendered diameter of n.
func (n *Node) Size() float64 {
	return Size(n.Kind, n.Value)
}
