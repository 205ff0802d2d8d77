package router // route registration for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/handler"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while protected
// endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register/employee", a.RegisterEmployee)
    g.POST("/register/employer", a.RegisterEmployer)
    g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts either a bearer access token (revoke all sessions)
    // or a refresh_token in the body (revoke one session), so it runs
    // without the JWT middleware.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("EMPLOYEE", "EMPLOYER"))
    auth.GET("/me", a.Me)
}
