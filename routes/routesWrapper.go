package routes

import (
	"github.com/julienschmidt/httprouter"
)

// RoutesWrapper builds the router with every route registered.
func RoutesWrapper(d Deps) *httprouter.Router {
	router := httprouter.New()
	AddHealthRoutes(router, d)
	AddCookbookRoutes(router, d)
	AddRecipeRoutes(router, d)
	AddNotificationRoutes(router, d)
	AddGenerateRoutes(router, d)
	AddAuthRoutes(router, d)
	return router
}
