package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
)

// AccessLogHandler exposes the role-scoped audit trail: employees see
// attempts against their own codes, employers see their own attempts.
type AccessLogHandler struct {
    Logs *repository.AccessLogRepo
}

func NewAccessLogHandler(logs *repository.AccessLogRepo) *AccessLogHandler {
    return &AccessLogHandler{Logs: logs}
}

// List returns the viewer's audit rows, scoped by their role.
func (h *AccessLogHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var items []model.AccessLog
    switch getRole(c) {
    case model.RoleEmployee:
        items, err = h.Logs.ListByEmployee(ctx, uid, offset, limit)
    case model.RoleEmployer:
        items, err = h.Logs.ListByEmployer(ctx, uid, offset, limit)
    default:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not enough permissions"})
    }
    if err != nil {
        return storeError(c, err, "access log not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get returns one audit row if the viewer has a claim on it.
func (h *AccessLogHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    entry, err := h.Logs.GetForViewer(ctx, id, uid, getRole(c))
    if err != nil {
        return storeError(c, err, "access log not found")
    }
    return c.JSON(http.StatusOK, entry)
}

// ListByCode returns audit rows for one of the employee's codes. A code
// the employee does not own yields an empty list, not an error.
func (h *AccessLogHandler) ListByCode(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    codeID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Logs.ListByCode(ctx, codeID, uid, offset, limit)
    if err != nil {
        return storeError(c, err, "access log not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// PendingApprovals returns undecided approval-gated attempts against the
// employee's codes.
func (h *AccessLogHandler) PendingApprovals(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Logs.ListPendingApprovals(ctx, uid, offset, limit)
    if err != nil {
        return storeError(c, err, "access log not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Approve records an approval decision on a pending attempt.
func (h *AccessLogHandler) Approve(c echo.Context) error {
    return h.decide(c, model.ApprovalApproved)
}

// Deny records a denial decision on a pending attempt.
func (h *AccessLogHandler) Deny(c echo.Context) error {
    return h.decide(c, model.ApprovalDenied)
}

// decide applies a write-once approval decision. A second decision on
// the same row surfaces as 409.
func (h *AccessLogHandler) decide(c echo.Context, status string) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    entry, err := h.Logs.Decide(ctx, id, uid, status)
    if err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "approval already decided"})
        }
        return storeError(c, err, "access log not found")
    }
    return c.JSON(http.StatusOK, entry)
}

// Stats summarises the viewer's redemption activity, scoped by role.
func (h *AccessLogHandler) Stats(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var (
        stats repository.AccessStats
    )
    switch getRole(c) {
    case model.RoleEmployee:
        stats, err = h.Logs.StatsByEmployee(ctx, uid)
    case model.RoleEmployer:
        stats, err = h.Logs.StatsByEmployer(ctx, uid)
    default:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not enough permissions"})
    }
    if err != nil {
        return storeError(c, err, "stats unavailable")
    }
    return c.JSON(http.StatusOK, stats)
}
