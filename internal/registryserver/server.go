package registryserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/uikit/internal/registry"
)

// DefaultName is the registry name served when none is configured.
const DefaultName = "uikit-local"

// DefaultSearchLimit caps /search results unless ?limit= says otherwise.
const DefaultSearchLimit = 20

// Option configures a server.
type Option func(*Server)

// WithName sets the name of the served registry document.
func WithName(name string) Option {
	return func(s *Server) { s.name = name }
}

// WithHomepage sets the homepage of the served registry document.
func WithHomepage(url string) Option {
	return func(s *Server) { s.homepage = url }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMiddlewares adds middleware in front of every route.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.middlewares = append(s.middlewares, mw...) }
}

// Server serves a merged index. The index can be replaced while serving.
type Server struct {
	router      *chi.Mux
	snap        atomic.Pointer[snapshot]
	events      *Events
	name        string
	homepage    string
	logger      *slog.Logger
	middlewares []func(http.Handler) http.Handler
}

type snapshot struct {
	idx    *registry.MergedIndex
	search *registry.SearchIndex
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New returns a server for idx with these routes:
//
//	GET /healthz
//	GET /registry.json          registry document with every merged item
//	GET /index.json             merged index with its sources
//	GET /r/{name}.json          one item; ?registry= picks the source
//	GET /search?q=&limit=       ranked search hits
//	GET /events                 WebSocket stream of index events
func New(idx *registry.MergedIndex, opts ...Option) *Server {
	s := &Server{
		events: NewEvents(),
		name:   DefaultName,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store(idx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	for _, mw := range s.middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", s.health)
	r.Get("/registry.json", s.registryDocument)
	r.Get("/index.json", s.mergedIndex)
	r.Get("/r/{name}.json", s.item)
	r.Get("/search", s.searchItems)
	r.Handle("/events", s.events)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetIndex swaps the served index and notifies subscribers.
func (s *Server) SetIndex(idx *registry.MergedIndex) {
	s.store(idx)
	s.events.Broadcast(Event{Type: EventIndex, Items: len(idx.Items)})
}

// NotifyError tells subscribers a rebuild failed.
func (s *Server) NotifyError(err error) {
	s.events.Broadcast(Event{Type: EventError, Error: err.Error()})
}

// Events returns the subscriber hub.
func (s *Server) Events() *Events {
	return s.events
}

// Close disconnects every subscriber.
func (s *Server) Close() {
	s.events.Close()
}

func (s *Server) store(idx *registry.MergedIndex) {
	s.snap.Store(&snapshot{idx: idx, search: registry.BuildSearchIndex(idx.Items)})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) registryDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, registry.Registry{
		Name:     s.name,
		Homepage: s.homepage,
		Items:    s.snap.Load().idx.Items,
	})
}

func (s *Server) mergedIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snap.Load().idx)
}

func (s *Server) item(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	idx := s.snap.Load().idx

	var (
		item *registry.Item
		ok   bool
	)
	if reg := r.URL.Query().Get("registry"); reg != "" {
		item, ok = idx.LookupIn(reg, name)
	} else {
		item, ok = idx.Lookup(name)
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "item " + name + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) searchItems(w http.ResponseWriter, r *http.Request) {
	limit := DefaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
			return
		}
		limit = n
	}
	hits := s.snap.Load().search.Search(r.URL.Query().Get("q"), limit)
	if hits == nil {
		hits = []registry.SearchHit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
