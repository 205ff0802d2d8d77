package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

// Bounds for code issuance. Codes live between one hour and thirty days
// and allow at most fifty redemptions.
const (
    minCodeTTLHours = 1
    maxCodeTTLHours = 24 * 30
    defaultTTLHours = 72
    maxUsageCap     = 50
)

// VerificationCodeHandler manages the employee-facing code lifecycle:
// issue, list, inspect and revoke.
type VerificationCodeHandler struct {
    Codes *repository.VerificationCodeRepo
}

func NewVerificationCodeHandler(codes *repository.VerificationCodeRepo) *VerificationCodeHandler {
    return &VerificationCodeHandler{Codes: codes}
}

type createCodeReq struct {
    EmploymentID   uint64  `json:"employment_id" validate:"required"`
    Purpose        string  `json:"purpose" validate:"required,min=3,max=255"`
    ExpiresInHours int     `json:"expires_in_hours"`
    MaxUsageCount  int     `json:"max_usage_count"`
    RequireApproval bool   `json:"require_approval"`
    AllowedDomains *string `json:"allowed_domains"`
}

// Create issues a new verification code for one of the employee's
// employment records.
func (h *VerificationCodeHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createCodeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Purpose = strings.TrimSpace(req.Purpose)
    if err := utils.ValidateStruct(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if req.ExpiresInHours == 0 {
        req.ExpiresInHours = defaultTTLHours
    }
    if req.ExpiresInHours < minCodeTTLHours || req.ExpiresInHours > maxCodeTTLHours {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_in_hours must be between 1 and 720"})
    }
    if req.MaxUsageCount == 0 {
        req.MaxUsageCount = 1
    }
    if req.MaxUsageCount < 1 || req.MaxUsageCount > maxUsageCap {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_usage_count must be between 1 and 50"})
    }

    vc := model.VerificationCode{
        EmployeeID:      uid,
        EmploymentID:    req.EmploymentID,
        Purpose:         req.Purpose,
        MaxUsageCount:   uint32(req.MaxUsageCount),
        ExpiresAt:       time.Now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour),
        RequireApproval: req.RequireApproval,
        AllowedDomains:  req.AllowedDomains,
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    created, err := h.Codes.Create(ctx, &vc)
    if err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.JSON(http.StatusCreated, created)
}

// List returns the employee's codes, newest first.
func (h *VerificationCodeHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Codes.ListByEmployee(ctx, uid, offset, limit)
    if err != nil {
        return storeError(c, err, "code not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get returns one code owned by the employee.
func (h *VerificationCodeHandler) Get(c echo.Context) error {
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

    vc, err := h.Codes.GetForEmployee(ctx, id, uid)
    if err != nil {
        return storeError(c, err, "code not found")
    }
    return c.JSON(http.StatusOK, vc)
}

// Revoke tombstones a code so it can never be redeemed again. The
// operation is idempotent: revoking an expired or used code succeeds and
// leaves the code revoked.
func (h *VerificationCodeHandler) Revoke(c echo.Context) error {
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

    vc, err := h.Codes.Revoke(ctx, id, uid)
    if err != nil {
        return storeError(c, err, "code not found")
    }
    return c.JSON(http.StatusOK, vc)
}
