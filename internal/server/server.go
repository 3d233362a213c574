// Package server is the HTTP boundary: request decoding and validation,
// routing, error-code mapping and structured request logging around the
// client facade.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/navikit/navgraph/pkg/client"
)

// Server hosts the REST API over a client facade.
type Server struct {
	client   *client.Client
	log      *zap.Logger
	validate *validator.Validate
	http     *http.Server
}

// New creates a Server listening on addr.
func New(addr string, c *client.Client, log *zap.Logger) *Server {
	s := &Server{
		client:   c,
		log:      log,
		validate: validator.New(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query/path", s.handleQueryPath)
		r.Post("/query/next-action", s.handleNextAction)
		r.Post("/query/match-page", s.handleMatchPage)
		r.Get("/pages/{pageID}/actions", s.handlePageActions)

		r.Post("/rag/retrieve", s.handleRAGRetrieve)

		r.Post("/graph/report-transition", s.handleReportTransition)
		r.Post("/graph/import-transitions", s.handleImportTransitions)
		r.Post("/graph/add-page", s.handleAddPage)
		r.Post("/intent/register", s.handleRegisterIntent)

		r.Get("/graph/stats", s.handleGraphStats)
		r.Get("/graph/export", s.handleGraphExport)
	})

	return r
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
