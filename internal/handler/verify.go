package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/queue"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/service"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

// VerifyHandler exposes the employer-facing redemption endpoint.
type VerifyHandler struct {
    Verifier *service.Verifier
    // PublishEvents disables broker publishing when false, e.g. in tests
    // or when no broker is configured.
    PublishEvents bool
}

func NewVerifyHandler(v *service.Verifier, publishEvents bool) *VerifyHandler {
    return &VerifyHandler{Verifier: v, PublishEvents: publishEvents}
}

type verifyReq struct {
    Code    string `json:"code" validate:"required"`
    Purpose string `json:"purpose" validate:"max=255"`
}

// Verify redeems a verification code on behalf of the authenticated
// employer. Business-rule rejections, malformed codes included, return
// 200 with success=false and are audit-logged; only an unreadable body,
// a missing code field and store faults produce error statuses.
func (h *VerifyHandler) Verify(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req verifyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
    if err := utils.ValidateStruct(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    // Malformed code strings are not short-circuited here: the engine
    // audits every attempt, garbage input included, and answers with a
    // normal success=false outcome.

    attempt := service.VerifyRequest{
        Code:       req.Code,
        EmployerID: uid,
        IPAddress:  c.RealIP(),
        UserAgent:  c.Request().UserAgent(),
        Purpose:    strings.TrimSpace(req.Purpose),
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    outcome, err := h.Verifier.VerifyCode(ctx, attempt)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
    }

    if h.PublishEvents {
        event := queue.VerificationAttemptedEvent{
            AccessLogID:        outcome.AccessLogID,
            VerificationCodeID: outcome.VerificationCodeID,
            Code:               req.Code,
            EmployerID:         uid,
            Success:            outcome.Success,
            Message:            outcome.Message,
            RequiresApproval:   outcome.RequiresApproval,
            AttemptedAt:        time.Now().UTC().Format(time.RFC3339),
        }
        // Publishing is best effort; the attempt is already committed.
        go func() {
            pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer pubCancel()
            _ = queue.PublishVerificationAttempted(pubCtx, event)
        }()
    }

    return c.JSON(http.StatusOK, outcome)
}
