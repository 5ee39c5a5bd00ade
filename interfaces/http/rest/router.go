// Package rest wires the HTTP surface: routing, middleware and handlers
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/application/services"
	domainservices "secondbrain-backend/domain/services"
	"secondbrain-backend/infrastructure/config"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/interfaces/http/rest/handlers"
	"secondbrain-backend/interfaces/http/rest/middleware"
	"secondbrain-backend/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	config      *config.Config
	graph       *services.GraphService
	suggestions *services.SuggestionService
	ingestion   *services.IngestionService
	search      *services.SearchService
	assistant   *services.AssistantService
	documents   ports.DocumentRepository
	projector   domainservices.ViewProjector
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	graph *services.GraphService,
	suggestions *services.SuggestionService,
	ingestion *services.IngestionService,
	search *services.SearchService,
	assistant *services.AssistantService,
	documents ports.DocumentRepository,
	projector domainservices.ViewProjector,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:      cfg,
		graph:       graph,
		suggestions: suggestions,
		ingestion:   ingestion,
		search:      search,
		assistant:   assistant,
		documents:   documents,
		projector:   projector,
		metrics:     metrics,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	errorHandler := errors.NewErrorHandler(rt.logger, rt.config.Logging.Debug)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	// recovers panics into the same error envelope the handlers produce
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireOwner())

		graphHandler := handlers.NewGraphHandler(rt.graph, rt.projector, rt.logger, errorHandler)
		r.Get("/graph", graphHandler.GetGraph)
		r.Get("/graph/stats", graphHandler.GetStats)
		r.Get("/graph/export", handlers.NewExportHandler(rt.graph, rt.documents, rt.logger, errorHandler).Export)

		nodeHandler := handlers.NewNodeHandler(rt.graph, rt.logger, errorHandler)
		suggestionHandler := handlers.NewSuggestionHandler(rt.suggestions, rt.logger, errorHandler)
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", nodeHandler.CreateNode)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
			r.Get("/{nodeID}/suggestions", suggestionHandler.GetSuggestions)
		})

		edgeHandler := handlers.NewEdgeHandler(rt.graph, rt.logger, errorHandler)
		r.Route("/edges", func(r chi.Router) {
			r.Post("/", edgeHandler.CreateEdge)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		r.Route("/suggestions", func(r chi.Router) {
			r.Post("/accept", suggestionHandler.AcceptSuggestion)
			r.Post("/{edgeID}/confirm", suggestionHandler.ConfirmSuggestion)
		})

		documentHandler := handlers.NewDocumentHandler(rt.ingestion, rt.documents, rt.logger, errorHandler)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.IngestDocument)
			r.Get("/", documentHandler.ListDocuments)
			r.Get("/{documentID}", documentHandler.GetDocument)
			r.Delete("/{documentID}", documentHandler.DeleteDocument)
			r.Post("/{documentID}/process", documentHandler.ReprocessDocument)
		})

		r.Get("/search", handlers.NewSearchHandler(rt.search, rt.logger, errorHandler).Search)

		assistantHandler := handlers.NewAssistantHandler(rt.assistant, rt.logger, errorHandler)
		r.Post("/ask", assistantHandler.Ask)
		r.Post("/summarize", assistantHandler.Summarize)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
