package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiContext "licgate/internal/api/context"
	"licgate/internal/api/handlers"
	"licgate/internal/api/middleware"
)

type Dependencies struct {
	ValidateHandler *handlers.ValidateHandler
	LicenseHandler  *handlers.LicenseHandler
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	StatsHandler    *handlers.StatsHandler
	HealthHandler   *handlers.HealthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	RateLimiter     *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Public validation endpoint, rate limited per client IP.
	router.GET("/api/v1/validate", chain(deps.ValidateHandler.Handle, deps.RateLimiter.Handle))
	router.POST("/api/v1/validate", chain(deps.ValidateHandler.Handle, deps.RateLimiter.Handle))

	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// Admin authentication
	router.POST("/api/v1/auth/register", wrap(deps.AuthHandler.Register))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))

	authMid := deps.AuthMiddleware

	// License management
	router.POST("/api/v1/licenses", chain(deps.LicenseHandler.Create, authMid.Handle))
	router.GET("/api/v1/licenses", chain(deps.LicenseHandler.List, authMid.Handle))
	router.GET("/api/v1/licenses/:license_id", chain(deps.LicenseHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/licenses/:license_id", chain(deps.LicenseHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/licenses/:license_id", chain(deps.LicenseHandler.Delete, authMid.Handle))
	router.POST("/api/v1/licenses/:license_id/regenerate", chain(deps.LicenseHandler.Regenerate, authMid.Handle))
	router.POST("/api/v1/licenses/:license_id/reset-count", chain(deps.LicenseHandler.ResetCount, authMid.Handle))
	router.GET("/api/v1/licenses/:license_id/logs", chain(deps.LicenseHandler.Logs, authMid.Handle))
	router.GET("/api/v1/licenses/:license_id/stats", chain(deps.LicenseHandler.Stats, authMid.Handle))

	// Reporting
	router.GET("/api/v1/stats/overview", chain(deps.StatsHandler.Overview, authMid.Handle))
	router.GET("/api/v1/stats/expiring", chain(deps.LicenseHandler.Expiring, authMid.Handle))
	router.GET("/api/v1/logs/recent", chain(deps.StatsHandler.RecentLogs, authMid.Handle))

	// Admin accounts
	router.GET("/api/v1/users", chain(deps.UserHandler.List, authMid.Handle))
	router.GET("/api/v1/users/me", chain(deps.UserHandler.Current, authMid.Handle))

	return router
}

// chain wires middlewares around a handler, first listed outermost.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts an http.HandlerFunc to an httprouter.Handle, stashing the
// route params in the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
