// Package di wires configuration, repositories, services and the HTTP
// router into a runnable container.
package di

import (
	"context"

	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/application/services"
	domainservices "studyflow-backend/domain/services"
	"studyflow-backend/infrastructure/messaging/eventbridge"
	"studyflow-backend/infrastructure/observability"
	"studyflow-backend/infrastructure/persistence/dynamodb"
	"studyflow-backend/infrastructure/persistence/memory"
	"studyflow-backend/infrastructure/textgen"
	"studyflow-backend/internal/config"
	"studyflow-backend/pkg/auth"
	appErrors "studyflow-backend/pkg/errors"
)

// Repositories groups the five persistence ports behind one provider so
// the memory and DynamoDB stacks swap as a unit.
type Repositories struct {
	Notes    ports.NoteRepository
	Cards    ports.FlashcardRepository
	Links    ports.LinkRepository
	Activity ports.ActivityRepository
	Versions ports.VersionRepository
}

// provideLogger builds the process logger for the configured environment
func provideLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// provideRepositories selects the persistence stack. Development runs on
// the in-memory implementation; staging and production use DynamoDB.
func provideRepositories(ctx context.Context, cfg config.Config, logger *zap.Logger) (Repositories, error) {
	if cfg.Environment == "development" {
		return Repositories{
			Notes:    memory.NewNoteRepository(),
			Cards:    memory.NewFlashcardRepository(),
			Links:    memory.NewLinkRepository(),
			Activity: memory.NewActivityRepository(),
			Versions: memory.NewVersionRepository(),
		}, nil
	}

	client, err := dynamodb.NewClient(ctx, cfg.AWS.Region, cfg.AWS.TableName)
	if err != nil {
		return Repositories{}, err
	}
	return Repositories{
		Notes:    dynamodb.NewNoteRepository(client, logger),
		Cards:    dynamodb.NewFlashcardRepository(client, logger),
		Links:    dynamodb.NewLinkRepository(client, logger),
		Activity: dynamodb.NewActivityRepository(client, logger),
		Versions: dynamodb.NewVersionRepository(client),
	}, nil
}

// providePublisher builds the EventBridge publisher when fan-out is
// enabled; a nil publisher means local-only activity recording.
func providePublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if !cfg.AWS.PublishEvents || cfg.AWS.EventBusName == "" {
		return nil, nil
	}
	return eventbridge.NewPublisher(ctx, cfg.AWS.Region, cfg.AWS.EventBusName, logger)
}

// provideGenerator builds the flashcard generator, falling back to the
// offline stub when the external service is not configured.
func provideGenerator(cfg config.Config, logger *zap.Logger) ports.FlashcardGenerator {
	if cfg.TextGen.Enabled && cfg.TextGen.Endpoint != "" {
		return textgen.NewGenerator(textgen.Config{
			Endpoint: cfg.TextGen.Endpoint,
			APIKey:   cfg.TextGen.APIKey,
			Timeout:  cfg.TextGen.Timeout,
		}, logger)
	}
	logger.Info("text generation service not configured, using stub generator")
	return textgen.NewStubGenerator()
}

// devJWTSecret signs tokens when no secret is configured outside
// production. Validation rejects an empty secret in production.
const devJWTSecret = "studyflow-development-secret-do-not-deploy"

// provideJWTValidator builds the bearer token validator
func provideJWTValidator(cfg config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("jwt secret not configured, using development secret")
		secret = devJWTSecret
	}
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, appErrors.NewInternal("configuring jwt validation", err)
	}
	return validator, nil
}

// provideVectorizer builds the shared TF-IDF vectorizer
func provideVectorizer() *domainservices.Vectorizer {
	return domainservices.NewVectorizer(nil)
}

// provideCollector builds the metrics collector when metrics are enabled
func provideCollector(cfg config.Config) *observability.Collector {
	if !cfg.Observability.MetricsEnabled {
		return nil
	}
	return observability.NewCollector("studyflow")
}

// provideActivityService builds the activity service with optional fan-out
func provideActivityService(repos Repositories, publisher ports.EventPublisher, logger *zap.Logger) *services.ActivityService {
	return services.NewActivityService(repos.Activity, publisher, logger)
}

// provideGraphService builds the graph service with metrics attached when
// a collector is configured.
func provideGraphService(
	repos Repositories,
	provider *config.Provider,
	vectorizer *domainservices.Vectorizer,
	collector *observability.Collector,
	logger *zap.Logger,
) *services.GraphService {
	graphs := services.NewGraphService(repos.Notes, repos.Links, repos.Versions, provider, vectorizer, logger)
	if collector != nil {
		graphs = graphs.WithMetrics(collector)
	}
	return graphs
}
