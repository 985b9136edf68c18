package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"aichef/handlers"
	"aichef/middleware"
	"aichef/notify"
	"aichef/ratelim"
)

type Deps struct {
	Handler *handlers.Handler
	Auth    *middleware.Auth
	Limiter *ratelim.RateLimiter
	Hub     *notify.Hub
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	AllowsOrigin  func(origin string) bool
	Log           *zap.Logger
}

// public runs h for anyone, observing sign-in and sign-out on the way.
func (d Deps) public(h httprouter.Handle) httprouter.Handle {
	return middleware.Session(d.SecureCookies)(d.Auth.OptionalAuth(middleware.ObserveAuth(d.Handler.Sessions)(h)))
}

// protected requires a valid bearer token.
func (d Deps) protected(h httprouter.Handle) httprouter.Handle {
	return middleware.Session(d.SecureCookies)(d.Auth.Authenticate(middleware.ObserveAuth(d.Handler.Sessions)(h)))
}

func AddHealthRoutes(router *httprouter.Router, d Deps) {
	router.GET("/health", d.Handler.Health)
}

func AddCookbookRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/cookbook", d.public(d.Handler.GetCookbook))
	router.PUT("/api/cookbook/view", d.public(d.Handler.UpdateView))
	router.POST("/api/cookbook/view/clear", d.public(d.Handler.ClearFilters))
	router.POST("/api/cookbook/refresh", d.public(d.Handler.Refresh))
}

func AddRecipeRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/recipes/save", d.public(d.Handler.SaveRecipe))
	router.DELETE("/api/recipes/:id", d.protected(d.Handler.DeleteRecipe))
	router.POST("/api/recipes/:id/favorite", d.protected(d.Handler.SetFavorite))
	router.POST("/api/recipes/:id/shared", d.protected(d.Handler.SetShared))
	router.GET("/api/recipes/:id/share", d.public(d.Handler.ShareRecipe))
	router.GET("/api/recipes/:id/thumbnail", d.public(d.Handler.Thumbnail))

	router.GET("/api/pending", d.public(d.Handler.GetPending))
	router.DELETE("/api/pending", d.public(d.Handler.AbandonPending))
}

func AddNotificationRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/notifications", d.public(d.Handler.GetNotifications))
	router.DELETE("/api/notifications/:id", d.public(d.Handler.DismissNotification))
	// the upgrade response cannot set cookies, so the stream needs an existing session
	router.GET("/ws/notifications", notify.WebSocketHandler(d.Hub, d.Handler.Sessions, middleware.SessionIDFromCookie, d.AllowsOrigin, d.Log))
}

func AddGenerateRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/generate", d.Limiter.Limit(d.public(d.Handler.Generate)))
	router.POST("/api/assistant", d.Limiter.Limit(d.public(d.Handler.Assistant)))
	router.POST("/api/recipe/suggestions", d.Limiter.Limit(d.public(d.Handler.Suggestions)))
	router.POST("/api/recipe/full", d.Limiter.Limit(d.public(d.Handler.FullRecipe)))
	router.POST("/api/recipe/direct", d.Limiter.Limit(d.public(d.Handler.DirectRecipe)))
	router.POST("/api/recipe/direct_with_image", d.Limiter.Limit(d.public(d.Handler.DirectWithImage)))
	router.POST("/api/recipe/image", d.Limiter.Limit(d.public(d.Handler.RecipeImage)))
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/auth/login", d.public(d.Handler.Login))
	router.GET("/api/auth/logout", d.public(d.Handler.Logout))
}

// LimitKey buckets rate limits by session, falling back to the client IP.
func LimitKey(r *http.Request) string {
	if id := middleware.SessionIDFromCookie(r); id != "" {
		return "session:" + id
	}
	return "ip:" + ratelim.ClientIP(r)
}
