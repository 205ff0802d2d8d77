package service

import (
    "context"
    "database/sql"
    "encoding/json"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
)

var detailColumns = []string{
    "vc.id", "vc.code", "vc.employee_id", "vc.employment_id", "vc.purpose", "vc.status",
    "vc.max_usage_count", "vc.current_usage_count", "vc.expires_at", "vc.require_approval",
    "vc.allowed_domains", "vc.created_at", "vc.updated_at", "vc.last_used_at",
    "e.id", "e.employee_id", "e.company_name", "e.company_location", "e.job_title", "e.department",
    "e.employment_type", "e.employment_status", "e.start_date", "e.end_date",
    "e.is_verified", "e.verification_date", "e.created_at", "e.updated_at",
    "u.full_name",
}

type codeFixture struct {
    status    string
    used      int
    max       int
    expiresAt time.Time
    approval  bool
}

func detailRow(f codeFixture) *sqlmock.Rows {
    now := time.Now().UTC()
    start := now.AddDate(-2, 0, 0)
    return sqlmock.NewRows(detailColumns).AddRow(
        uint64(10), "SL-ABCD-1234-WXYZ", uint64(5), uint64(20), "background check", f.status,
        f.max, f.used, f.expiresAt, f.approval,
        nil, now, now, nil,
        uint64(20), uint64(5), "Acme Corp", "Berlin", "Engineer", "Platform",
        model.EmploymentTypeFullTime, model.EmploymentStatusCurrent, start, nil,
        true, now, now, now,
        "Jane Doe",
    )
}

func newVerifierWithMock(t *testing.T) (*Verifier, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewVerifier(
        repository.NewVerificationCodeRepo(db),
        repository.NewAccessLogRepo(db),
    ), mock
}

func baseRequest() VerifyRequest {
    return VerifyRequest{
        Code:       "SL-ABCD-1234-WXYZ",
        EmployerID: 99,
        IPAddress:  "203.0.113.7",
        UserAgent:  "curl/8",
        Purpose:    "pre-employment screening",
    }
}

func TestVerifyCodeSuccess(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    fixture := codeFixture{
        status:    model.CodeStatusActive,
        used:      0,
        max:       1,
        expiresAt: time.Now().UTC().Add(time.Hour),
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").
        WithArgs("SL-ABCD-1234-WXYZ").
        WillReturnRows(detailRow(fixture))
    mock.ExpectExec("UPDATE verification_codes").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectCommit()

    out, err := v.VerifyCode(context.Background(), baseRequest())
    require.NoError(t, err)

    assert.True(t, out.Success)
    assert.Equal(t, MsgVerified, out.Message)
    assert.Equal(t, uint64(7), out.AccessLogID)
    require.NotNil(t, out.VerificationCodeID)
    assert.Equal(t, uint64(10), *out.VerificationCodeID)
    assert.Equal(t, "Jane Doe", out.EmployeeName)
    assert.Equal(t, "Acme Corp", out.CompanyName)
    assert.Equal(t, "Engineer", out.JobTitle)
    require.NotNil(t, out.Data)
    assert.Equal(t, uint64(20), out.Data.EmploymentID)
    assert.True(t, out.Data.IsVerified)
    assert.NotNil(t, out.VerifiedAt)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeMalformedFormat(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    // No lookup query is expected: the format check short-circuits it,
    // but the failure audit row still commits like any other rejection.
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(2, 1))
    mock.ExpectCommit()

    req := baseRequest()
    req.Code = "garbage-code"
    out, err := v.VerifyCode(context.Background(), req)
    require.NoError(t, err)

    assert.False(t, out.Success)
    assert.Equal(t, MsgInvalidCode, out.Message)
    assert.Equal(t, uint64(2), out.AccessLogID)
    assert.Nil(t, out.VerificationCodeID)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeUnknown(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").
        WithArgs("SL-ZZZZ-ZZZZ-ZZZZ").
        WillReturnError(sql.ErrNoRows)
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(3, 1))
    mock.ExpectCommit()

    req := baseRequest()
    req.Code = "SL-ZZZZ-ZZZZ-ZZZZ"
    out, err := v.VerifyCode(context.Background(), req)
    require.NoError(t, err)

    assert.False(t, out.Success)
    assert.Equal(t, MsgInvalidCode, out.Message)
    assert.Equal(t, uint64(3), out.AccessLogID)
    assert.Nil(t, out.VerificationCodeID)
    assert.Nil(t, out.Data)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeRevoked(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    fixture := codeFixture{
        status:    model.CodeStatusRevoked,
        used:      0,
        max:       1,
        expiresAt: time.Now().UTC().Add(time.Hour),
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").WillReturnRows(detailRow(fixture))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(4, 1))
    mock.ExpectCommit()

    out, err := v.VerifyCode(context.Background(), baseRequest())
    require.NoError(t, err)

    assert.False(t, out.Success)
    assert.Equal(t, "Verification code is revoked", out.Message)
    assert.Nil(t, out.Data)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeExpired(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    fixture := codeFixture{
        status:    model.CodeStatusActive,
        used:      0,
        max:       1,
        expiresAt: time.Now().UTC().Add(-time.Minute),
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").WillReturnRows(detailRow(fixture))
    // The status flip happens in the same transaction as the audit row.
    mock.ExpectExec("UPDATE verification_codes").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(5, 1))
    mock.ExpectCommit()

    out, err := v.VerifyCode(context.Background(), baseRequest())
    require.NoError(t, err)

    assert.False(t, out.Success)
    assert.Equal(t, MsgCodeExpired, out.Message)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeUsageExhausted(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    fixture := codeFixture{
        status:    model.CodeStatusActive,
        used:      3,
        max:       3,
        expiresAt: time.Now().UTC().Add(time.Hour),
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").WillReturnRows(detailRow(fixture))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(6, 1))
    mock.ExpectCommit()

    out, err := v.VerifyCode(context.Background(), baseRequest())
    require.NoError(t, err)

    assert.False(t, out.Success)
    assert.Equal(t, MsgUsageLimitExceeded, out.Message)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeLosesConsumeRace(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    // The read sees one usage left, but the conditional update affects
    // no rows: a concurrent attempt consumed it first.
    fixture := codeFixture{
        status:    model.CodeStatusActive,
        used:      2,
        max:       3,
        expiresAt: time.Now().UTC().Add(time.Hour),
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").WillReturnRows(detailRow(fixture))
    mock.ExpectExec("UPDATE verification_codes").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(8, 1))
    mock.ExpectCommit()

    out, err := v.VerifyCode(context.Background(), baseRequest())
    require.NoError(t, err)

    assert.False(t, out.Success)
    assert.Equal(t, MsgUsageLimitExceeded, out.Message)
    assert.Nil(t, out.Data)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeApprovalGated(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    fixture := codeFixture{
        status:    model.CodeStatusActive,
        used:      0,
        max:       5,
        expiresAt: time.Now().UTC().Add(time.Hour),
        approval:  true,
    }
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").WillReturnRows(detailRow(fixture))
    mock.ExpectExec("UPDATE verification_codes").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO access_logs").
        WillReturnResult(sqlmock.NewResult(9, 1))
    mock.ExpectCommit()

    out, err := v.VerifyCode(context.Background(), baseRequest())
    require.NoError(t, err)

    assert.True(t, out.Success)
    assert.True(t, out.RequiresApproval)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCodeStoreFaultRollsBack(t *testing.T) {
    v, mock := newVerifierWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT vc.id").WillReturnError(sql.ErrConnDone)
    mock.ExpectRollback()

    _, err := v.VerifyCode(context.Background(), baseRequest())
    assert.Error(t, err)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildSnapshotJSONShape(t *testing.T) {
    now := time.Now().UTC()
    loc := "Berlin"
    e := model.Employment{
        ID:               20,
        CompanyName:      "Acme Corp",
        JobTitle:         "Engineer",
        EmploymentType:   model.EmploymentTypeFullTime,
        EmploymentStatus: model.EmploymentStatusCurrent,
        StartDate:        now.AddDate(-1, 0, 0),
        CompanyLocation:  &loc,
        IsVerified:       true,
        VerificationDate: &now,
    }
    data, err := json.Marshal(buildSnapshot(&e))
    require.NoError(t, err)

    var m map[string]interface{}
    require.NoError(t, json.Unmarshal(data, &m))
    for _, key := range []string{
        "employment_id", "company_name", "job_title", "employment_type",
        "employment_status", "start_date", "end_date", "department",
        "location", "is_verified", "verification_date",
    } {
        assert.Contains(t, m, key)
    }
    assert.Equal(t, "Acme Corp", m["company_name"])
    assert.Nil(t, m["end_date"])
}
