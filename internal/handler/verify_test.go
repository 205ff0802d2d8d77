package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/service"
)

func newVerifyHandlerWithMock(t *testing.T) (*VerifyHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    verifier := service.NewVerifier(
        repository.NewVerificationCodeRepo(db),
        repository.NewAccessLogRepo(db),
    )
    return NewVerifyHandler(verifier, false), mock
}

func verifyContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", float64(99))
    c.Set("role", "EMPLOYER")
    return c, rec
}

func TestVerifyMalformedCodeIsAudited(t *testing.T) {
    h, mock := newVerifyHandlerWithMock(t)

    // Garbage input skips the lookup but still commits an audit row and
    // answers as a normal invalid-code rejection.
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(2, 1))
    mock.ExpectCommit()

    c, rec := verifyContext(t, `{"code":"not-a-code"}`)
    require.NoError(t, h.Verify(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var out service.Outcome
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    assert.False(t, out.Success)
    assert.Equal(t, service.MsgInvalidCode, out.Message)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRejectsMissingCode(t *testing.T) {
    h, mock := newVerifyHandlerWithMock(t)

    c, rec := verifyContext(t, `{}`)
    require.NoError(t, h.Verify(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyNormalizesCase(t *testing.T) {
    h, mock := newVerifyHandlerWithMock(t)

    // Lowercase input is uppercased before lookup; an unknown code is a
    // business rejection, returned as 200 with success=false.
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").
        WithArgs("SL-ABCD-1234-WXYZ").
        WillReturnRows(sqlmock.NewRows([]string{"vc.id"}))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectCommit()

    c, rec := verifyContext(t, `{"code":"sl-abcd-1234-wxyz","purpose":"screening"}`)
    require.NoError(t, h.Verify(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var out service.Outcome
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    assert.False(t, out.Success)
    assert.Equal(t, service.MsgInvalidCode, out.Message)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySuccessResponseShape(t *testing.T) {
    h, mock := newVerifyHandlerWithMock(t)

    now := time.Now().UTC()
    cols := []string{
        "vc.id", "vc.code", "vc.employee_id", "vc.employment_id", "vc.purpose", "vc.status",
        "vc.max_usage_count", "vc.current_usage_count", "vc.expires_at", "vc.require_approval",
        "vc.allowed_domains", "vc.created_at", "vc.updated_at", "vc.last_used_at",
        "e.id", "e.employee_id", "e.company_name", "e.company_location", "e.job_title", "e.department",
        "e.employment_type", "e.employment_status", "e.start_date", "e.end_date",
        "e.is_verified", "e.verification_date", "e.created_at", "e.updated_at",
        "u.full_name",
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").
        WillReturnRows(sqlmock.NewRows(cols).AddRow(
            uint64(10), "SL-ABCD-1234-WXYZ", uint64(5), uint64(20), "check", "active",
            1, 0, now.Add(time.Hour), false,
            nil, now, now, nil,
            uint64(20), uint64(5), "Acme Corp", nil, "Engineer", nil,
            "full_time", "current", now.AddDate(-1, 0, 0), nil,
            true, nil, now, now,
            "Jane Doe",
        ))
    mock.ExpectExec("UPDATE verification_codes").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectCommit()

    c, rec := verifyContext(t, `{"code":"SL-ABCD-1234-WXYZ"}`)
    require.NoError(t, h.Verify(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, true, body["success"])
    assert.Equal(t, service.MsgVerified, body["message"])
    assert.Equal(t, "Jane Doe", body["employee_name"])
    data, ok := body["data"].(map[string]interface{})
    require.True(t, ok)
    assert.Equal(t, "Acme Corp", data["company_name"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRequiresAuthenticatedUser(t *testing.T) {
    h, mock := newVerifyHandlerWithMock(t)

    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{"code":"SL-ABCD-1234-WXYZ"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    require.NoError(t, h.Verify(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}
