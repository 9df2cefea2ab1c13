package viz

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/goccy/go-json"
	"github.com/peoplegraph/peoplegraph/internal/graph"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
}

// DefaultScriptURL is the force-graph bundle loaded by the page.
const DefaultScriptURL = "https://unpkg.com/force-graph@1/dist/force-graph.min.js"

// Meta is the page's title and social card metadata.
type Meta struct {
	Title       string
	Description string
	ImageURL    string
	SiteName    string
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Meta       Meta
	Layout     Layout
	PinnedNode string

	// SelectURL is the endpoint the page posts selection events to. When
	// empty, the highlight set of every node is embedded in the page instead.
	SelectURL string

	// PlaceholderURL is drawn for people whose avatar is missing.
	PlaceholderURL string

	ScriptURL string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Meta:      Meta{Title: "People Graph"},
		Layout:    DefaultLayout(),
		ScriptURL: DefaultScriptURL,
	}
}

// templateData holds data for the HTML template.
type templateData struct {
	Meta           Meta
	ScriptURL      string
	GraphJSON      template.JS
	HighlightsJSON template.JS
	LayoutJSON     template.JS
	SelectURL      string
	PinnedNode     string
	PlaceholderURL string
}

// GenerateHTML renders the force-layout page for g.
func GenerateHTML(g *graph.Graph, avatar AvatarFunc, opts HTMLOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	if g.IsEmpty() {
		return generateEmptyHTML(opts.Meta), nil
	}

	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultScriptURL
	}

	graphJSON, err := json.Marshal(FromGraph(g, avatar))
	if err != nil {
		return "", fmt.Errorf("marshaling graph to JSON: %w", err)
	}

	highlightsJSON := []byte("null")
	if opts.SelectURL == "" {
		highlightsJSON, err = json.Marshal(AllHighlights(g))
		if err != nil {
			return "", fmt.Errorf("marshaling highlights to JSON: %w", err)
		}
	}

	layoutJSON, err := json.Marshal(opts.Layout)
	if err != nil {
		return "", fmt.Errorf("marshaling layout to JSON: %w", err)
	}

	data := templateData{
		Meta:           opts.Meta,
		ScriptURL:      opts.ScriptURL,
		GraphJSON:      template.JS(graphJSON),
		HighlightsJSON: template.JS(highlightsJSON),
		LayoutJSON:     template.JS(layoutJSON),
		SelectURL:      opts.SelectURL,
		PinnedNode:     opts.PinnedNode,
		PlaceholderURL: opts.PlaceholderURL,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// AllHighlights computes the highlight set of every node that has at least
// one edge, as sorted index lists, for pages rendered without a server.
func AllHighlights(g *graph.Graph) map[string][]int {
	out := make(map[string][]int, len(g.Nodes))
	for _, n := range g.Nodes {
		if len(n.IncidentEdges) == 0 {
			continue
		}
		out[n.ID] = graph.Highlight(g, n.ID).Sorted()
	}
	return out
}

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML(meta Meta) string {
	title := template.HTMLEscapeString(meta.Title)
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>` + title + `</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #111;
    }
    .empty-state {
      text-align: center;
      color: #aaa;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No graph data</h2>
    <p>The graph document has no nodes.</p>
  </div>
</body>
</html>`
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Meta.Title}}</title>
  {{- with .Meta.Description}}
  <meta name="description" content="{{.}}">
  <meta property="og:description" content="{{.}}">
  {{- end}}
  <meta property="og:title" content="{{.Meta.Title}}">
  {{- with .Meta.SiteName}}
  <meta property="og:site_name" content="{{.}}">
  {{- end}}
  {{- with .Meta.ImageURL}}
  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:image" content="{{.}}">
  <meta property="og:image" content="{{.}}">
  {{- end}}
  <script src="{{.ScriptURL}}"></script>
  <style>
    html, body {
      margin: 0;
      padding: 0;
      overflow: hidden;
      background: #111;
    }
    #graph {
      width: 100vw;
      height: 100vh;
    }
  </style>
</head>
<body>
  <div id="graph"></div>
  <script>
    (function() {
      const data = {{.GraphJSON}};
      const embedded = {{.HighlightsJSON}};
      const layout = {{.LayoutJSON}};
      const selectURL = {{.SelectURL}};
      const pinned = {{.PinnedNode}};
      const placeholderURL = {{.PlaceholderURL}};

      let active = '';
      let highlight = new Set();

      // Images load lazily on first paint; failures stay failed.
      const images = {};
      function loadImage(key, url) {
        let entry = images[key];
        if (!entry) {
          entry = images[key] = { img: new Image(), ready: false };
          entry.img.onload = function() { entry.ready = true; };
          entry.img.src = url;
        }
        return entry.ready ? entry.img : null;
      }

      function reduce(state, kind, id) {
        if (kind === 'background') return '';
        if (id === state || (pinned && id === pinned)) return state;
        return id;
      }

      async function select(kind, id) {
        if (selectURL) {
          try {
            const resp = await fetch(selectURL, {
              method: 'POST',
              headers: { 'Content-Type': 'application/json' },
              body: JSON.stringify({ active: active, event: kind, node: id || '' })
            });
            if (!resp.ok) return;
            const out = await resp.json();
            active = out.active || '';
            highlight = new Set(out.highlight || []);
          } catch (e) {
            return;
          }
        } else {
          active = reduce(active, kind, id);
          highlight = new Set((active && embedded && embedded[active]) || []);
        }
      }

      function style(link) {
        return highlight.has(link.seq) ? layout.highlighted : layout.plain;
      }

      function paint(node, ctx) {
        if (node.x === undefined || node.y === undefined) return;
        let size = node.size;
        if (node.kind === 'person') {
          let img = node.avatar ? loadImage(node.id, node.avatar) : null;
          if (!img && placeholderURL) {
            img = loadImage('\u0000placeholder', placeholderURL);
            size = layout.placeholderSize;
          }
          if (!img) return;
          ctx.beginPath();
          ctx.arc(node.x, node.y, size / 2, 0, 2 * Math.PI, false);
          ctx.fillStyle = layout.personFill;
          ctx.fill();
          ctx.drawImage(img, node.x - size / 2, node.y - size / 2, size, size);
        } else {
          ctx.beginPath();
          ctx.arc(node.x, node.y, size / 2, 0, 2 * Math.PI, false);
          ctx.fillStyle = layout.otherFill;
          ctx.fill();
        }
      }

      ForceGraph()(document.getElementById('graph'))
        .graphData(data)
        .d3VelocityDecay(layout.velocityDecay)
        .minZoom(layout.minZoom)
        .nodeId('id')
        .nodeLabel('name')
        .nodeVal(function(n) { return n.size; })
        .nodeCanvasObject(paint)
        .linkColor(function(l) { return style(l).color; })
        .linkWidth(function(l) { return style(l).width; })
        .linkDirectionalParticles(layout.particles)
        .linkDirectionalParticleWidth(function(l) { return style(l).particleWidth; })
        .onNodeClick(function(n) { select('node', n.id); })
        .onBackgroundClick(function() { select('background'); });
    })();
  </script>
</body>
</html>`
