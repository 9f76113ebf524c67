// Package rest assembles the chi router for the HTTP API.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/infrastructure/observability"
	"studyflow-backend/interfaces/http/rest/handlers"
	"studyflow-backend/interfaces/http/rest/middleware"
	"studyflow-backend/internal/config"
	"studyflow-backend/pkg/auth"
	appErrors "studyflow-backend/pkg/errors"
)

// Router wires the application services into HTTP routes
type Router struct {
	notes        *services.NoteService
	links        *services.LinkService
	graphs       *services.GraphService
	cards        *services.FlashcardService
	reviews      *services.ReviewService
	activity     *services.ActivityService
	validator    *auth.JWTValidator
	collector    *observability.Collector
	errorHandler *appErrors.ErrorHandler
	config       config.Config
	logger       *zap.Logger
}

// NewRouter creates a router over the application services
func NewRouter(
	notes *services.NoteService,
	links *services.LinkService,
	graphs *services.GraphService,
	cards *services.FlashcardService,
	reviews *services.ReviewService,
	activity *services.ActivityService,
	validator *auth.JWTValidator,
	collector *observability.Collector,
	errorHandler *appErrors.ErrorHandler,
	cfg config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		notes:        notes,
		links:        links,
		graphs:       graphs,
		cards:        cards,
		reviews:      reviews,
		activity:     activity,
		validator:    validator,
		collector:    collector,
		errorHandler: errorHandler,
		config:       cfg,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestLogger(rt.logger))

	if rt.config.Observability.TracingEnabled {
		router.Use(observability.TracingMiddleware(rt.config.Observability.ServiceName))
	}
	if rt.collector != nil {
		router.Use(observability.MetricsMiddleware(rt.collector))
	}

	origins := rt.config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Handle("/metrics", rt.collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.errorHandler))

		noteHandler := handlers.NewNoteHandler(rt.notes, rt.collector, rt.errorHandler, rt.logger)
		linkHandler := handlers.NewLinkHandler(rt.links, rt.errorHandler, rt.logger)
		graphHandler := handlers.NewGraphHandler(rt.graphs, rt.errorHandler, rt.logger)
		cardHandler := handlers.NewFlashcardHandler(rt.cards, rt.reviews, rt.collector, rt.errorHandler, rt.logger)
		activityHandler := handlers.NewActivityHandler(rt.activity, rt.errorHandler, rt.logger)

		r.Route("/notes", func(r chi.Router) {
			r.Post("/", noteHandler.Create)
			r.Get("/", noteHandler.List)
			r.Get("/{noteID}", noteHandler.Get)
			r.Put("/{noteID}", noteHandler.Update)
			r.Delete("/{noteID}", noteHandler.Delete)
			r.Get("/{noteID}/keywords", noteHandler.Keywords)
			r.Get("/{noteID}/connections", graphHandler.Connections)

			r.Post("/{noteID}/links", linkHandler.Create)
			r.Get("/{noteID}/links", linkHandler.Outgoing)
			r.Delete("/{noteID}/links/{targetID}", linkHandler.Delete)
			r.Get("/{noteID}/backlinks", linkHandler.Backlinks)

			r.Post("/{noteID}/flashcards", cardHandler.Generate)
			r.Get("/{noteID}/flashcards", cardHandler.ListByNote)
		})

		r.Route("/flashcards", func(r chi.Router) {
			r.Post("/", cardHandler.Create)
			r.Get("/", cardHandler.List)
			r.Get("/stats", cardHandler.Stats)
			r.Post("/{cardID}/review", cardHandler.Review)
		})

		r.Get("/graph", graphHandler.Get)

		r.Post("/events", activityHandler.Record)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/summary", activityHandler.Summary)
			r.Get("/activity", activityHandler.DayCounts)
			r.Get("/recent", activityHandler.Recent)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
