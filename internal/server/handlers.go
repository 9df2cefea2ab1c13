package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/peoplegraph/peoplegraph/internal/avatar"
	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"github.com/peoplegraph/peoplegraph/internal/selection"
	"github.com/peoplegraph/peoplegraph/internal/viz"
	"go.uber.org/zap"
)

type snapshotKey struct{}

// requireGraph pins the current snapshot for the whole request, so a reload
// mid-request cannot mix two graphs.
func (s *Server) requireGraph(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := s.current.Load()
		if snap == nil {
			writeError(w, http.StatusServiceUnavailable, "graph not loaded")
			return
		}
		ctx := context.WithValue(r.Context(), snapshotKey{}, snap)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func snapshotFrom(r *http.Request) *snapshot {
	snap, _ := r.Context().Value(snapshotKey{}).(*snapshot)
	return snap
}

// nodeParam returns the node id from the path. chi matches on the raw path
// when it holds escapes that differ from the default encoding.
func nodeParam(r *http.Request) string {
	id := chi.URLParam(r, "nodeID")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
	}
	return id
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	Dangling int    `json:"dangling"`
	LoadedAt string `json:"loaded_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Nodes:    len(snap.graph.Nodes),
		Edges:    len(snap.graph.Edges),
		Dangling: snap.dangling,
		LoadedAt: snap.loadedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(snapshotFrom(r).page))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := document.Encode(w, snapshotFrom(r).doc); err != nil {
		s.logger.Error("encoding document", zap.Error(err))
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viz.FromGraph(snapshotFrom(r).graph, s.avatarURL))
}

// HighlightResponse is the selection and its highlighted edge indices.
type HighlightResponse struct {
	Active    string `json:"active"`
	Highlight []int  `json:"highlight"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	id := nodeParam(r)
	g := snapshotFrom(r).graph

	// An unknown node is no selection, not an error.
	if g.Node(id) == nil {
		writeJSON(w, http.StatusOK, HighlightResponse{Highlight: []int{}})
		return
	}
	writeJSON(w, http.StatusOK, HighlightResponse{
		Active:    id,
		Highlight: graph.Highlight(g, id).Sorted(),
	})
}

// SelectRequest carries the page's current selection and one interaction.
type SelectRequest struct {
	Active string `json:"active" validate:"max=1024"`
	Event  string `json:"event" validate:"required,oneof=node background"`
	Node   string `json:"node" validate:"required_if=Event node,max=1024"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := selection.ParseEventKind(req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl := selection.NewController(snapshotFrom(r).graph, s.rules, selection.State{ActiveNodeID: req.Active})
	state, highlight := ctrl.Dispatch(selection.Event{Kind: kind, NodeID: req.Node})
	s.metrics.recordSelection(kind.String(), state.ActiveNodeID != req.Active)

	writeJSON(w, http.StatusOK, HighlightResponse{
		Active:    state.ActiveNodeID,
		Highlight: highlight.Sorted(),
	})
}

// NodeResponse describes one node and its ego network.
type NodeResponse struct {
	ID        string   `json:"id"`
	SID       string   `json:"sid,omitempty"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Kind      string   `json:"kind"`
	DocID     string   `json:"docId,omitempty"`
	Value     float64  `json:"value"`
	Size      float64  `json:"size"`
	Degree    int      `json:"degree"`
	Neighbors []string `json:"neighbors"`
	Highlight []int    `json:"highlight"`
}

func newNodeResponse(g *graph.Graph, n *graph.Node) NodeResponse {
	neighbors := g.Neighbors(n.ID)
	if neighbors == nil {
		neighbors = []string{}
	}
	return NodeResponse{
		ID:        n.ID,
		SID:       n.SID,
		Name:      n.Name,
		Type:      n.Type,
		Kind:      n.Kind.String(),
		DocID:     n.DocID,
		Value:     n.Value,
		Size:      n.Size(),
		Degree:    g.Degree(n.ID),
		Neighbors: neighbors,
		Highlight: graph.Highlight(g, n.ID).Sorted(),
	}
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	g := snapshotFrom(r).graph
	n := g.Node(nodeParam(r))
	if n == nil {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	writeJSON(w, http.StatusOK, newNodeResponse(g, n))
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []NodeResponse `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusNotImplemented, "search index not configured")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 200)
	}

	found, err := s.db.Search(query, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	g := snapshotFrom(r).graph
	resp := SearchResponse{Query: query, Results: make([]NodeResponse, 0, len(found))}
	for _, d := range found {
		// The index can lag a reload by one document; skip what is gone.
		if n := g.Node(d.ID); n != nil {
			resp.Results = append(resp.Results, newNodeResponse(g, n))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if s.avatars == nil {
		http.NotFound(w, r)
		return
	}
	n := snapshotFrom(r).graph.Node(nodeParam(r))
	if n == nil || n.Kind != graph.KindPerson || n.SID == "" {
		s.metrics.recordAvatar("none")
		http.NotFound(w, r)
		return
	}

	res := s.avatars.Lookup(r.Context(), n.ID, n.SID)
	if res.Placeholder || res.Image == nil {
		s.metrics.recordAvatar("missing")
		http.NotFound(w, r)
		return
	}
	s.metrics.recordAvatar("hit")
	writeImage(w, res.Image)
}

func (s *Server) handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	if s.avatars == nil {
		http.NotFound(w, r)
		return
	}
	img := s.avatars.Placeholder(r.Context())
	if img == nil {
		http.NotFound(w, r)
		return
	}
	writeImage(w, img)
}

func writeImage(w http.ResponseWriter, img *avatar.Image) {
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	_, _ = w.Write(img.Data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
