package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/OhMinsSup/solid-server-go/internal/config"
	"github.com/OhMinsSup/solid-server-go/internal/handler"
	"github.com/OhMinsSup/solid-server-go/internal/middleware"
)

// Register wires every route. The session gate runs in front of the whole
// API group: it resolves an identity when a token is presented and lets
// anonymous requests through. Routes that require a login apply
// RequireUser on top — the gate alone never enforces authentication.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	a *handler.AuthHandler, p *handler.PostHandler, d *handler.DraftHandler,
	auths middleware.AuthStore, users middleware.IdentityStore) {

	e.GET("/healthz", handler.Health)

	e.Use(middleware.RequestID())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	api := e.Group("/api/v1")
	api.Use(middleware.SessionGate(cfg, auths, users))

	// Auth. Logout is on the gate's bypass list; it handles its own token.
	ag := api.Group("/auth")
	ag.POST("/signup", a.Signup)
	ag.POST("/signin", a.Signin)
	ag.POST("/logout", a.Logout)
	ag.GET("/me", a.Me, middleware.RequireUser())

	// Public post reads, cached when Redis is available.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	api.GET("/posts", p.List, cache)
	api.GET("/posts/:id", p.Detail, cache)
	api.POST("/posts", p.Create, middleware.RequireUser())

	// Drafts are owner-only throughout.
	dg := api.Group("/drafts", middleware.RequireUser())
	dg.GET("", d.List)
	dg.GET("/:id", d.Detail)
	dg.POST("/new", d.Create)
	dg.POST("/save-data", d.SaveData)
}
