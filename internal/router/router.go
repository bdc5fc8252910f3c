package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/auth"
	"github.com/iliyamo/personal-finance-api/internal/handler"
	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// RegisterRoutes registers routes that require no authentication. Currently
// that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts the session endpoints under /v1/auth and the profile
// endpoints under /v1/me. The limiter wraps the whole auth group so both
// credential guessing and refresh hammering drain the same bucket. Logout
// and everything under /v1/me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, codec *auth.Codec, users repository.UserStore, limiter echo.MiddlewareFunc) {
	guard := middleware.Auth(codec, users)

	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, guard)

	me := e.Group("/v1/me", guard)
	me.GET("", a.Me)
	me.PUT("", a.UpdateMe)
	me.DELETE("", a.DeleteMe)
}

// RegisterLedger mounts the category, transaction and report endpoints.
// Every route runs behind the auth guard; the two read-heavy GETs also go
// through the response cache.
func RegisterLedger(e *echo.Echo, categories *handler.CategoryHandler, transactions *handler.TransactionHandler,
	reports *handler.ReportHandler, codec *auth.Codec, users repository.UserStore, cache echo.MiddlewareFunc) {
	guard := middleware.Auth(codec, users)

	cats := e.Group("/v1/categories", guard)
	cats.GET("", categories.List, cache)
	cats.POST("", categories.Create)
	cats.PUT("/:id", categories.Update)
	cats.DELETE("/:id", categories.Delete)

	txs := e.Group("/v1/transactions", guard)
	txs.GET("", transactions.List)
	txs.POST("", transactions.Create)
	txs.POST("/import", transactions.Import)
	txs.GET("/:id", transactions.Get)
	txs.PUT("/:id", transactions.Update)
	txs.DELETE("/:id", transactions.Delete)

	rep := e.Group("/v1/reports", guard)
	rep.GET("/summary", reports.Summary, cache)
}
