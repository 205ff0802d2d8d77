package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/config"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerEmployeeReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=8"`
    FullName string `json:"full_name" validate:"required,min=2,max=100"`
}
type registerEmployerReq struct {
    Email       string `json:"email" validate:"required,email"`
    Password    string `json:"password" validate:"required,min=8"`
    FullName    string `json:"full_name" validate:"required,min=2,max=100"`
    CompanyName string `json:"company_name" validate:"required,min=2,max=120"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID            uint64  `json:"id"`
    Email         string  `json:"email"`
    FullName      string  `json:"full_name"`
    Role          string  `json:"role"`
    PublicID      *string `json:"public_id,omitempty"`
    EmployerID    *uint64 `json:"employer_id,omitempty"`
    CompanyHandle *string `json:"company_handle,omitempty"`
    CompanyName   *string `json:"company_name,omitempty"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{
        ID:            u.ID,
        Email:         u.Email,
        FullName:      u.FullName,
        Role:          u.Role,
        PublicID:      u.PublicID,
        EmployerID:    u.EmployerID,
        CompanyHandle: u.CompanyHandle,
        CompanyName:   u.CompanyName,
    }
}

// issuePair creates a fresh access/refresh token pair for the user and
// stores the hashed refresh token.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (tokenPart, tokenPart, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return tokenPart{}, tokenPart{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return tokenPart{}, tokenPart{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return tokenPart{}, tokenPart{}, err
    }
    return tokenPart{Token: access.Token, Expires: access.Exp},
        tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil // raw back to client
}

// RegisterEmployee creates an employee account and returns tokens
// immediately. A short public ID is generated server-side so employees
// never expose their numeric row ID.
func (h *AuthHandler) RegisterEmployee(c echo.Context) error {
    var req registerEmployeeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.FullName = strings.TrimSpace(req.FullName)
    if err := utils.ValidateStruct(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.CreateEmployee(ctx, req.Email, req.Password, req.FullName, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// RegisterEmployer creates an employer account with a generated numeric
// employer ID and a company handle derived from the company name.
func (h *AuthHandler) RegisterEmployer(c echo.Context) error {
    var req registerEmployerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.FullName = strings.TrimSpace(req.FullName)
    req.CompanyName = strings.TrimSpace(req.CompanyName)
    if err := utils.ValidateStruct(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.CreateEmployer(ctx, req.Email, req.Password, req.FullName, req.CompanyName, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !u.IsActive {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// Refresh: validate by hash, revoke old, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// RefreshAccess: validate a refresh token and return a new access token
// without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout supports two modes: revoking a specific refresh token supplied
// in the body, or revoking all refresh tokens for the user identified by
// a bearer access token. The endpoint runs without the JWT middleware so
// the Authorization header is parsed here.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    hasBearer := false
    authHeader := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(authHeader, "Bearer ") {
        rawToken := strings.TrimPrefix(authHeader, "Bearer ")
        tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
            if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                return nil, echo.ErrUnauthorized
            }
            return []byte(h.Cfg.JWTSecret), nil
        })
        if err == nil && tok.Valid {
            if claims, ok := tok.Claims.(jwt.MapClaims); ok {
                switch subVal := claims["sub"].(type) {
                case float64:
                    uid = uint64(subVal)
                    hasBearer = true
                case string:
                    if parsed, err := strconv.ParseUint(subVal, 10, 64); err == nil {
                        uid = parsed
                        hasBearer = true
                    }
                }
            }
        }
    }

    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if hasBearer && refreshToken == "" {
        if uid == 0 {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    if refreshToken != "" {
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return storeError(c, err, "user not found")
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
