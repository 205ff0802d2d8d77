package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
)

// getUserID extracts the user_id stored in the context by the JWT
// middleware and converts it to uint64. JWT numeric claims decode as
// float64, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim stored by the JWT middleware.
func getRole(c echo.Context) string {
    role, _ := c.Get("role").(string)
    return role
}

// pathID parses the named path parameter as a positive uint64.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// pageParams reads optional ?skip= and ?limit= query parameters with
// the same defaults and cap on every listing endpoint.
func pageParams(c echo.Context) (offset, limit int) {
    offset = 0
    limit = 100
    if v := c.QueryParam("skip"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n >= 0 {
            offset = n
        }
    }
    if v := c.QueryParam("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
            limit = n
        }
    }
    return offset, limit
}

// storeError translates repository failures into the uniform error
// responses used across handlers: 404 for missing rows, 403 for
// ownership violations, 409 for conflicting state and 500 for
// everything else. Store faults are never swallowed into business
// responses.
func storeError(c echo.Context, err error, notFoundMsg string) error {
    switch {
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not enough permissions"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}
