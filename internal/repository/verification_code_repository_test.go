package repository

import (
    "context"
    "database/sql"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
)

var codeTestColumns = []string{
    "id", "code", "employee_id", "employment_id", "purpose", "status",
    "max_usage_count", "current_usage_count", "expires_at", "require_approval",
    "allowed_domains", "created_at", "updated_at", "last_used_at",
}

func codeRow(id uint64, status string, used, max int) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows(codeTestColumns).AddRow(
        id, "SL-ABCD-1234-WXYZ", uint64(5), uint64(20), "background check", status,
        max, used, now.Add(time.Hour), false,
        nil, now, now, nil,
    )
}

func newCodeRepoWithMock(t *testing.T) (*VerificationCodeRepo, sqlmock.Sqlmock, *sql.DB) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewVerificationCodeRepo(db), mock, db
}

func TestCreateRejectsForeignEmployment(t *testing.T) {
    repo, mock, _ := newCodeRepoWithMock(t)

    mock.ExpectQuery("SELECT employee_id FROM employments").
        WithArgs(uint64(20)).
        WillReturnRows(sqlmock.NewRows([]string{"employee_id"}).AddRow(uint64(777)))

    // A foreign employment is indistinguishable from a missing one.
    _, err := repo.Create(context.Background(), &model.VerificationCode{
        EmployeeID:    5,
        EmploymentID:  20,
        Purpose:       "background check",
        MaxUsageCount: 1,
        ExpiresAt:     time.Now().UTC().Add(time.Hour),
    })
    assert.ErrorIs(t, err, sql.ErrNoRows)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMissingEmployment(t *testing.T) {
    repo, mock, _ := newCodeRepoWithMock(t)

    mock.ExpectQuery("SELECT employee_id FROM employments").
        WithArgs(uint64(404)).
        WillReturnError(sql.ErrNoRows)

    _, err := repo.Create(context.Background(), &model.VerificationCode{
        EmployeeID:   5,
        EmploymentID: 404,
        ExpiresAt:    time.Now().UTC().Add(time.Hour),
    })
    assert.ErrorIs(t, err, sql.ErrNoRows)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRetriesOnDuplicateCode(t *testing.T) {
    repo, mock, _ := newCodeRepoWithMock(t)

    mock.ExpectQuery("SELECT employee_id FROM employments").
        WillReturnRows(sqlmock.NewRows([]string{"employee_id"}).AddRow(uint64(5)))
    // First candidate collides with an existing code string; a fresh one
    // is generated and the insert retried.
    mock.ExpectExec("INSERT INTO verification_codes").
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry for key 'verification_codes.code'"))
    mock.ExpectExec("INSERT INTO verification_codes").
        WillReturnResult(sqlmock.NewResult(10, 1))
    mock.ExpectQuery("SELECT id, code").
        WillReturnRows(codeRow(10, model.CodeStatusActive, 0, 1))

    vc, err := repo.Create(context.Background(), &model.VerificationCode{
        EmployeeID:    5,
        EmploymentID:  20,
        Purpose:       "background check",
        MaxUsageCount: 1,
        ExpiresAt:     time.Now().UTC().Add(time.Hour),
    })
    require.NoError(t, err)
    assert.Equal(t, uint64(10), vc.ID)
    assert.Equal(t, model.CodeStatusActive, vc.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForEmployeeForeign(t *testing.T) {
    repo, mock, _ := newCodeRepoWithMock(t)

    mock.ExpectQuery("SELECT id, code").
        WithArgs(uint64(10)).
        WillReturnRows(codeRow(10, model.CodeStatusActive, 0, 1))

    _, err := repo.GetForEmployee(context.Background(), 10, 999)
    assert.ErrorIs(t, err, ErrForbidden)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeIsUnconditional(t *testing.T) {
    repo, mock, _ := newCodeRepoWithMock(t)

    // Revoking an already used code still writes the tombstone.
    mock.ExpectQuery("SELECT id, code").
        WillReturnRows(codeRow(10, model.CodeStatusUsed, 1, 1))
    mock.ExpectExec("UPDATE verification_codes SET status").
        WithArgs(model.CodeStatusRevoked, uint64(10)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery("SELECT id, code").
        WillReturnRows(codeRow(10, model.CodeStatusRevoked, 1, 1))

    vc, err := repo.Revoke(context.Background(), 10, 5)
    require.NoError(t, err)
    assert.Equal(t, model.CodeStatusRevoked, vc.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeTxReportsLostRace(t *testing.T) {
    repo, mock, db := newCodeRepoWithMock(t)

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE verification_codes").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    tx, err := db.Begin()
    require.NoError(t, err)
    defer func() { _ = tx.Rollback() }()

    consumed, err := repo.ConsumeTx(context.Background(), tx, 10)
    require.NoError(t, err)
    assert.False(t, consumed)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeTxSingleRow(t *testing.T) {
    repo, mock, db := newCodeRepoWithMock(t)

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE verification_codes").
        WithArgs(model.CodeStatusUsed, uint64(10), model.CodeStatusActive).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    tx, err := db.Begin()
    require.NoError(t, err)

    consumed, err := repo.ConsumeTx(context.Background(), tx, 10)
    require.NoError(t, err)
    assert.True(t, consumed)
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireDueCount(t *testing.T) {
    repo, mock, _ := newCodeRepoWithMock(t)

    mock.ExpectExec("UPDATE verification_codes SET status").
        WithArgs(model.CodeStatusExpired, model.CodeStatusActive).
        WillReturnResult(sqlmock.NewResult(0, 4))

    n, err := repo.ExpireDue(context.Background())
    require.NoError(t, err)
    assert.Equal(t, int64(4), n)
    assert.NoError(t, mock.ExpectationsWereMet())
}
