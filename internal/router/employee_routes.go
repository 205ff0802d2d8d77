package router // route registration for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/handler"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/middleware"
)

// RegisterEmployee registers EMPLOYEE-scoped endpoints under /v1.
// All routes require a valid JWT and EMPLOYEE role.
func RegisterEmployee(
    e *echo.Echo,
    emp *handler.EmploymentHandler,
    codes *handler.VerificationCodeHandler,
    logs *handler.AccessLogHandler,
    jwtSecret string,
) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("EMPLOYEE"),
    )

    // ---- Employment records ----
    g.POST("/employments", emp.Create)
    g.GET("/employments", emp.List)
    g.GET("/employments/:id", emp.Get)
    g.PUT("/employments/:id", emp.Update)
    g.PATCH("/employments/:id", emp.Update)
    g.DELETE("/employments/:id", emp.Delete)
    g.POST("/employments/:id/set-current", emp.SetCurrent)

    // ---- Verification codes ----
    g.POST("/verification-codes", codes.Create)
    g.GET("/verification-codes", codes.List)
    g.GET("/verification-codes/:id", codes.Get)
    g.POST("/verification-codes/:id/revoke", codes.Revoke)
    g.GET("/verification-codes/:id/access-logs", logs.ListByCode)

    // ---- Approval workflow ----
    g.GET("/approvals/pending", logs.PendingApprovals)
    g.POST("/access-logs/:id/approve", logs.Approve)
    g.POST("/access-logs/:id/deny", logs.Deny)
}
