package internal

import (
	"net/http"

	"habitd/internal/controllers"
	"habitd/internal/providers"
	"habitd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/habits", http.HandlerFunc(apiController.ListHabits))
	routers.Post("/habits", http.HandlerFunc(apiController.CreateHabit))
	routers.Put("/habits", http.HandlerFunc(apiController.UpdateHabit))
	routers.Delete("/habits", http.HandlerFunc(apiController.DeleteHabit))
	routers.Post("/habits/toggle", http.HandlerFunc(apiController.ToggleCompletion))
	routers.Get("/history", http.HandlerFunc(apiController.GetHistory))
	routers.Get("/progress", http.HandlerFunc(apiController.GetProgress))
	routers.Post("/sync", http.HandlerFunc(apiController.SyncNow))
	return routers
}
