package router // route registration for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/handler"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/middleware"
)

// RegisterEmployer registers EMPLOYER-scoped endpoints under /v1. The
// redemption endpoint additionally runs behind the rate limiter so code
// strings cannot be brute forced.
func RegisterEmployer(
    e *echo.Echo,
    v *handler.VerifyHandler,
    jwtSecret string,
    rateLimiter echo.MiddlewareFunc,
) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("EMPLOYER"),
    )

    g.POST("/verify", v.Verify, rateLimiter)
}

// RegisterAccessLogs registers the audit-trail views shared by both
// roles; each handler scopes results by the caller's role.
func RegisterAccessLogs(e *echo.Echo, logs *handler.AccessLogHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("EMPLOYEE", "EMPLOYER"),
    )

    g.GET("/access-logs", logs.List)
    g.GET("/access-logs/stats", logs.Stats)
    g.GET("/access-logs/:id", logs.Get)
}
