package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

func okHandler(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("role", "EMPLOYEE")

    err := RequireRole("EMPLOYEE", "EMPLOYER")(okHandler)(c)
    require.NoError(t, err)
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("role", "EMPLOYER")

    err := RequireRole("EMPLOYEE")(okHandler)(c)
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    err := RequireRole("EMPLOYEE")(okHandler)(c)
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthValidToken(t *testing.T) {
    const secret = "mw-test-secret"
    at, err := utils.NewAccessToken(secret, 7, "EMPLOYER", 5)
    require.NoError(t, err)

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    req.Header.Set("Authorization", "Bearer "+at.Token)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    var gotRole interface{}
    next := func(c echo.Context) error {
        gotRole = c.Get("role")
        return c.String(http.StatusOK, "ok")
    }
    require.NoError(t, JWTAuth(secret)(next)(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "EMPLOYER", gotRole)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    require.NoError(t, JWTAuth("secret")(okHandler)(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsForgedToken(t *testing.T) {
    at, err := utils.NewAccessToken("other-secret", 7, "EMPLOYEE", 5)
    require.NoError(t, err)

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    req.Header.Set("Authorization", "Bearer "+at.Token)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    require.NoError(t, JWTAuth("real-secret")(okHandler)(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
