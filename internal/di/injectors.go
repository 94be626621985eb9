//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"habitd/internal"
	"habitd/internal/controllers"
	"habitd/internal/providers"
	"habitd/internal/services"
	"habitd/internal/store"
	"habitd/internal/structures"
	"habitd/internal/syncer"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewIdentityProvider,

		store.NewZstdCompressor,
		services.NewHabitService,
		store.NewFileManager,
		syncer.NewRemoteClient,
		syncer.NewOrchestrator,
		syncer.NewRolloverEngine,
		syncer.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
