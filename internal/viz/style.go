package viz

import "github.com/peoplegraph/peoplegraph/internal/graph"

// LinkStyle is the stroke of a link.
type LinkStyle struct {
	Color         string  `json:"color"`
	Width         float64 `json:"width"`
	ParticleWidth float64 `json:"particleWidth"`
}

// Link styles for highlighted and plain links.
var (
	HighlightedLink = LinkStyle{Color: "rgba(0, 174, 239, 0.4)", Width: 5, ParticleWidth: 4}
	PlainLink       = LinkStyle{Color: "rgba(170, 170, 170, 0.5)", Width: 1, ParticleWidth: 0}
)

// Layout holds the force layout settings sent to the page.
type Layout struct {
	VelocityDecay   float64   `json:"velocityDecay"`
	MinZoom         float64   `json:"minZoom"`
	Particles       int       `json:"particles"`
	PersonFill      string    `json:"personFill"`
	OtherFill       string    `json:"otherFill"`
	PlaceholderSize float64   `json:"placeholderSize"`
	HighlightedLink LinkStyle `json:"highlighted"`
	PlainLink       LinkStyle `json:"plain"`
}

// DefaultLayout returns the standard layout settings.
func DefaultLayout() Layout {
	return Layout{
		VelocityDecay:   0.6,
		MinZoom:         0.9,
		Particles:       4,
		PersonFill:      "#555",
		OtherFill:       "#00aeef",
		PlaceholderSize: graph.PlaceholderSize,
		HighlightedLink: HighlightedLink,
		PlainLink:       PlainLink,
	}
}
