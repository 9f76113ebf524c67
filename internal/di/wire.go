//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"studyflow-backend/application/services"
	"studyflow-backend/interfaces/http/rest"
	"studyflow-backend/internal/config"
	appErrors "studyflow-backend/pkg/errors"
)

// providerSet lists every provider the injector can draw from
var providerSet = wire.NewSet(
	provideLogger,
	provideRepositories,
	providePublisher,
	provideGenerator,
	provideJWTValidator,
	provideVectorizer,
	provideCollector,
	provideActivityService,
	provideGraphService,
	services.NewNoteService,
	services.NewLinkService,
	services.NewFlashcardService,
	services.NewReviewService,
	appErrors.NewErrorHandler,
	rest.NewRouter,
	wire.FieldsOf(new(Repositories), "Notes", "Cards", "Links", "Versions"),
)

// InitializeRouter builds the REST router with all dependencies resolved.
// The committed container construction mirrors this graph by hand; the
// injector keeps the two in sync under `wire check`.
func InitializeRouter(ctx context.Context, cfg config.Config, provider *config.Provider) (*rest.Router, error) {
	wire.Build(providerSet)
	return nil, nil
}
