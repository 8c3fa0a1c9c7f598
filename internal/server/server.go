// Package server exposes surveys, compliance analysis and rendering over
// HTTP.
//
// All routes live under /api/v1 and speak JSON. Stateless routes take a
// snapshot in the request body; survey routes read the stored snapshot,
// apply one editor operation and write the result back.
//
//	POST   /analyze                       compliance report for a snapshot
//	POST   /layout                        one-line layout for a snapshot
//	POST   /render/{format}               rendered artifact for a snapshot
//	GET    /surveys                       list stored surveys
//	POST   /surveys                       create a survey
//	GET    /surveys/{id}                  fetch a survey
//	PUT    /surveys/{id}                  replace a survey's snapshot
//	DELETE /surveys/{id}                  delete a survey
//	POST   /surveys/{id}/panels           add a panel
//	PUT    /surveys/{id}/panels/{panelID} update a panel
//	DELETE /surveys/{id}/panels/{panelID} remove a panel and its subtree
//	PUT    .../panels/{panelID}/transformer          set a transformer
//	DELETE .../panels/{panelID}/transformer          remove it
//	POST   .../panels/{panelID}/breakers             add a breaker
//	PUT    .../panels/{panelID}/breakers/{breakerID} update a breaker
//	DELETE .../panels/{panelID}/breakers/{breakerID} remove a breaker
//	GET    /surveys/{id}/report           report as pdf, xlsx or json
//	GET    /profiles                      charger-profile catalog
//	GET    /healthz                       liveness
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/profile"
	"github.com/evsingleline/singleline/pkg/store"
	"github.com/evsingleline/singleline/pkg/survey"
)

// Server serves the API. Create one with [New].
type Server struct {
	store   store.Store
	runner  *pipeline.Runner
	catalog *profile.Catalog
	editor  *survey.Editor
	logger  *log.Logger

	origins  []string
	defaults pipeline.Options
	version  string
	now      func() time.Time

	// locks serializes read-modify-write cycles per survey id.
	locks sync.Map
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithRenderDefaults sets the diagram options used when a request leaves
// them unset.
func WithRenderDefaults(o pipeline.Options) Option {
	return func(s *Server) { s.defaults = o }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option { return func(s *Server) { s.version = v } }

// WithIDGenerator sets the generator for new service, panel and breaker ids.
func WithIDGenerator(ids survey.IDGenerator) Option {
	return func(s *Server) { s.editor = survey.NewEditor(ids) }
}

// New creates a server over st. A nil runner renders without caching; a nil
// catalog uses the built-in charger profiles.
func New(st store.Store, runner *pipeline.Runner, catalog *profile.Catalog, opts ...Option) *Server {
	s := &Server{
		store:   st,
		runner:  runner,
		catalog: catalog,
		editor:  survey.NewEditor(survey.UUIDGenerator{}),
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.catalog == nil {
		s.catalog = profile.Default()
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition", "X-Cache"},
			MaxAge:         300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Get("/profiles", s.handleProfiles)

		r.Post("/analyze", s.handleAnalyze)
		r.Post("/layout", s.handleLayout)
		r.Post("/render/{format}", s.handleRender)

		r.Route("/surveys", func(r chi.Router) {
			r.Get("/", s.handleListSurveys)
			r.Post("/", s.handleCreateSurvey)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSurvey)
				r.Put("/", s.handlePutSurvey)
				r.Delete("/", s.handleDeleteSurvey)
				r.Get("/report", s.handleReport)

				r.Post("/panels", s.handleAddPanel)
				r.Route("/panels/{panelID}", func(r chi.Router) {
					r.Put("/", s.handleUpdatePanel)
					r.Delete("/", s.handleRemovePanel)
					r.Put("/transformer", s.handleSetTransformer)
					r.Delete("/transformer", s.handleRemoveTransformer)
					r.Post("/breakers", s.handleAddBreaker)
					r.Put("/breakers/{breakerID}", s.handleUpdateBreaker)
					r.Delete("/breakers/{breakerID}", s.handleRemoveBreaker)
				})
			})
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// lock acquires the mutation lock for survey id.
func (s *Server) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
