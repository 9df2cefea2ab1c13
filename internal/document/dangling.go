package document

// Reasons reported for a dangling link.
const (
	MissingSource = "missing_source"
	MissingTarget = "missing_target"
	MissingBoth   = "missing_both"
)

// DanglingLink describes a link with at least one endpoint absent from the
// node list.
type DanglingLink struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// DetectDangling reports links whose endpoints are not in the node list.
// The document itself is left untouched; dangling links stay renderable.
func DetectDangling(doc *Document) []DanglingLink {
	ids := doc.NodeIDs()

	var dangling []DanglingLink
	for i, l := range doc.Links {
		sourceOK := ids[l.Source]
		targetOK := ids[l.Target]
		if sourceOK && targetOK {
			continue
		}

		info := DanglingLink{Index: i, Source: l.Source, Target: l.Target}
		switch {
		case !sourceOK && !targetOK:
			info.Reason = MissingBoth
		case !sourceOK:
			info.Reason = MissingSource
		default:
			info.Reason = MissingTarget
		}
		dangling = append(dangling, info)
	}
	return dangling
}

// DuplicateNodeIDs returns node ids that appear more than once, with counts.
func DuplicateNodeIDs(doc *Document) map[string]int {
	counts := make(map[string]int, len(doc.Nodes))
	for _, n := range doc.Nodes {
		counts[n.ID]++
	}

	duplicates := make(map[string]int)
	for id, count := range counts {
		if count > 1 {
			duplicates[id] = count
		}
	}
	return duplicates
}

// SelfLoops returns the indices of links whose source equals their target.
func SelfLoops(doc *Document) []int {
	var loops []int
	for i, l := range doc.Links {
		if l.Source == l.Target {
			loops = append(loops, i)
		}
	}
	return loops
}
