// Package server serves the people graph page and its JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/peoplegraph/peoplegraph/internal/avatar"
	"github.com/peoplegraph/peoplegraph/internal/config"
	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"github.com/peoplegraph/peoplegraph/internal/selection"
	"github.com/peoplegraph/peoplegraph/internal/storage"
	"github.com/peoplegraph/peoplegraph/internal/viz"
	"go.uber.org/zap"
)

// Routes the page refers to.
const (
	SelectPath      = "/api/select"
	PlaceholderPath = "/placeholder.png"
	avatarPrefix    = "/avatars/"
)

// snapshot is everything derived from one loaded document. A snapshot is never
// modified after it is published.
type snapshot struct {
	doc      *document.Document
	graph    *graph.Graph
	page     string
	dangling int
	loadedAt time.Time
}

// Server holds the current graph and the avatar cache.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	avatars *avatar.Cache
	db      *storage.DB
	metrics *Metrics
	rules   selection.Rules

	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAvatars sets the avatar cache behind /avatars.
func WithAvatars(c *avatar.Cache) Option {
	return func(s *Server) {
		s.avatars = c
	}
}

// WithIndex sets the SQLite cache behind /api/search. It is rebuilt on every
// load.
func WithIndex(db *storage.DB) Option {
	return func(s *Server) {
		s.db = db
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server. Load must succeed before the server has a graph.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: zap.NewNop(),
		rules:  selection.Rules{PinnedNodeID: cfg.PinnedNode},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("peoplegraph")
	}
	return s
}

// Load reads the configured document, builds a new graph from it and swaps
// it in. On error the previous graph stays in place.
func (s *Server) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	doc, err := document.Load(ctx, s.cfg.DataPath)
	if err != nil {
		s.metrics.recordReload(false)
		return err
	}
	if err := s.publish(doc); err != nil {
		s.metrics.recordReload(false)
		return err
	}
	s.metrics.recordReload(true)
	return nil
}

// SetDocument publishes doc as the current graph without reading the data
// path.
func (s *Server) SetDocument(doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.publish(doc)
}

func (s *Server) publish(doc *document.Document) error {
	g := graph.FromDocument(doc)

	opts := s.htmlOptions()
	page, err := viz.GenerateHTML(g, s.avatarURL, opts)
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	if s.db != nil {
		if _, _, err := s.db.RebuildFromDocument(doc); err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
	}

	dangling := len(document.DetectDangling(doc))
	s.current.Store(&snapshot{
		doc:      doc,
		graph:    g,
		page:     page,
		dangling: dangling,
		loadedAt: time.Now(),
	})
	s.metrics.setGraphSize(len(g.Nodes), len(g.Edges), dangling)

	s.logger.Info("graph loaded",
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Int("dangling", dangling))
	return nil
}

func (s *Server) htmlOptions() viz.HTMLOptions {
	opts := viz.DefaultOptions()
	opts.Meta = viz.Meta{
		Title:       s.cfg.Title,
		Description: s.cfg.Description,
		ImageURL:    s.cfg.SocialImageURL,
		SiteName:    s.cfg.SiteName,
	}
	opts.PinnedNode = s.cfg.PinnedNode
	opts.SelectURL = SelectPath
	if s.avatars != nil {
		opts.PlaceholderURL = PlaceholderPath
	}
	return opts
}

// avatarURL points person nodes at this server's avatar proxy. Nodes without
// a secondary image key go straight to the placeholder.
func (s *Server) avatarURL(n *graph.Node) string {
	if s.avatars == nil || n.SID == "" {
		return ""
	}
	return avatarPrefix + url.PathEscape(n.ID)
}

// Graph returns the current graph, or nil before the first successful load.
func (s *Server) Graph() *graph.Graph {
	if snap := s.current.Load(); snap != nil {
		return snap.graph
	}
	return nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireGraph)

		r.Get("/", s.handlePage)
		r.Get("/static/data.json", s.handleDocument)

		r.Route("/api", func(r chi.Router) {
			r.Get("/graph", s.handleGraph)
			r.Get("/highlight/{nodeID}", s.handleHighlight)
			r.Post("/select", s.handleSelect)
			r.Get("/nodes/{nodeID}", s.handleNode)
			r.Get("/search", s.handleSearch)
		})

		r.Get("/avatars/{nodeID}", s.handleAvatar)
	})
	r.Get(PlaceholderPath, s.handlePlaceholder)

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// WatchData reloads the graph whenever the local data file changes.
func (s *Server) WatchData(ctx context.Context) error {
	if document.IsRemote(s.cfg.DataPath) {
		return ErrRemoteData
	}
	return Watch(ctx, s.cfg.DataPath, DefaultDebounce, s.logger, func() {
		if err := s.Load(ctx); err != nil {
			s.logger.Error("reload failed, keeping previous graph", zap.Error(err))
			return
		}
		if s.avatars != nil {
			s.avatars.Warm(ctx, s.Graph().Nodes, s.cfg.AvatarConcurrency)
		}
	})
}
