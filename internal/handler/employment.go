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

// EmploymentHandler exposes the employee-facing employment record CRUD.
type EmploymentHandler struct {
    Employments *repository.EmploymentRepo
}

func NewEmploymentHandler(e *repository.EmploymentRepo) *EmploymentHandler {
    return &EmploymentHandler{Employments: e}
}

type employmentReq struct {
    CompanyName      string  `json:"company_name" validate:"required,min=2,max=120"`
    CompanyLocation  *string `json:"company_location"`
    JobTitle         string  `json:"job_title" validate:"required,min=2,max=120"`
    Department       *string `json:"department"`
    EmploymentType   string  `json:"employment_type" validate:"required,oneof=full_time part_time contract internship freelance"`
    EmploymentStatus string  `json:"employment_status" validate:"required,oneof=current ended on_leave"`
    StartDate        string  `json:"start_date" validate:"required"`
    EndDate          *string `json:"end_date"`
}

// parseDate accepts a bare date or full RFC 3339 timestamp.
func parseDate(v string) (time.Time, error) {
    v = strings.TrimSpace(v)
    if t, err := time.Parse("2006-01-02", v); err == nil {
        return t.UTC(), nil
    }
    t, err := time.Parse(time.RFC3339, v)
    if err != nil {
        return time.Time{}, err
    }
    return t.UTC(), nil
}

func (req *employmentReq) toModel(employeeID uint64) (model.Employment, error) {
    start, err := parseDate(req.StartDate)
    if err != nil {
        return model.Employment{}, err
    }
    e := model.Employment{
        EmployeeID:       employeeID,
        CompanyName:      strings.TrimSpace(req.CompanyName),
        CompanyLocation:  req.CompanyLocation,
        JobTitle:         strings.TrimSpace(req.JobTitle),
        Department:       req.Department,
        EmploymentType:   req.EmploymentType,
        EmploymentStatus: req.EmploymentStatus,
        StartDate:        start,
    }
    if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
        end, err := parseDate(*req.EndDate)
        if err != nil {
            return model.Employment{}, err
        }
        e.EndDate = &end
    }
    return e, nil
}

// Create adds an employment record for the authenticated employee.
func (h *EmploymentHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req employmentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := utils.ValidateStruct(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    e, err := req.toModel(uid)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format, want YYYY-MM-DD"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    created, err := h.Employments.Create(ctx, &e)
    if err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.JSON(http.StatusCreated, created)
}

// List returns the employee's employment records, newest first.
func (h *EmploymentHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Employments.ListByEmployee(ctx, uid, offset, limit)
    if err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get returns one employment record owned by the employee.
func (h *EmploymentHandler) Get(c echo.Context) error {
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

    e, err := h.Employments.GetForEmployee(ctx, id, uid)
    if err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.JSON(http.StatusOK, e)
}

// Update overwrites the mutable fields of an owned employment record.
func (h *EmploymentHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var req employmentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := utils.ValidateStruct(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    e, err := req.toModel(uid)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format, want YYYY-MM-DD"})
    }
    e.ID = id

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    updated, err := h.Employments.Update(ctx, &e, uid)
    if err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.JSON(http.StatusOK, updated)
}

// Delete removes an owned employment record.
func (h *EmploymentHandler) Delete(c echo.Context) error {
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

    if err := h.Employments.Delete(ctx, id, uid); err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.NoContent(http.StatusNoContent)
}

// SetCurrent marks one record as the current employment and ends all
// other records of the same employee.
func (h *EmploymentHandler) SetCurrent(c echo.Context) error {
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

    e, err := h.Employments.SetAsCurrent(ctx, id, uid)
    if err != nil {
        return storeError(c, err, "employment not found")
    }
    return c.JSON(http.StatusOK, e)
}
