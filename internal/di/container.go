package di

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"studyflow-backend/application/services"
	"studyflow-backend/infrastructure/observability"
	"studyflow-backend/interfaces/http/rest"
	"studyflow-backend/internal/config"
	appErrors "studyflow-backend/pkg/errors"
)

// Container holds the fully wired application. Build it once at startup
// and tear it down with Shutdown.
type Container struct {
	Config   config.Config
	Provider *config.Provider
	Logger   *zap.Logger
	Handler  http.Handler

	Notes     *services.NoteService
	Links     *services.LinkService
	Graphs    *services.GraphService
	Cards     *services.FlashcardService
	Reviews   *services.ReviewService
	Activity  *services.ActivityService
	Collector *observability.Collector

	tracer *observability.TracerProvider
}

// NewContainer wires the application from a loaded configuration
func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	logger, err := provideLogger(cfg)
	if err != nil {
		return nil, appErrors.NewInternal("building logger", err)
	}

	provider := config.NewProvider(cfg)

	repos, err := provideRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	publisher, err := providePublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	generator := provideGenerator(cfg, logger)
	validator, err := provideJWTValidator(cfg, logger)
	if err != nil {
		return nil, err
	}
	vectorizer := provideVectorizer()
	collector := provideCollector(cfg)

	var tracer *observability.TracerProvider
	if cfg.Observability.TracingEnabled {
		tracer, err = observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: cfg.Observability.ServiceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.Observability.OTLPEndpoint,
		})
		if err != nil {
			return nil, appErrors.NewInternal("initializing tracing", err)
		}
	}

	activity := provideActivityService(repos, publisher, logger)
	notes := services.NewNoteService(repos.Notes, repos.Cards, repos.Links, repos.Versions, activity, vectorizer, logger)
	links := services.NewLinkService(repos.Notes, repos.Links, repos.Versions, logger)
	graphs := provideGraphService(repos, provider, vectorizer, collector, logger)
	cards := services.NewFlashcardService(repos.Cards, repos.Notes, generator, activity, logger)
	reviews := services.NewReviewService(repos.Cards, provider, activity, logger)

	errorHandler := appErrors.NewErrorHandler(logger)
	router := rest.NewRouter(notes, links, graphs, cards, reviews, activity,
		validator, collector, errorHandler, cfg, logger)

	return &Container{
		Config:    cfg,
		Provider:  provider,
		Logger:    logger,
		Handler:   router.Setup(),
		Notes:     notes,
		Links:     links,
		Graphs:    graphs,
		Cards:     cards,
		Reviews:   reviews,
		Activity:  activity,
		Collector: collector,
		tracer:    tracer,
	}, nil
}

// Shutdown flushes telemetry and the logger
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	// Sync errors on stderr are expected on some platforms; ignore them
	_ = c.Logger.Sync()
	return firstErr
}
