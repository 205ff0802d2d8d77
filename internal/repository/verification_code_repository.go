package repository

import (
    "context"
    "database/sql"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

// maxCodeAttempts bounds the uniqueness retry loop for code generation.
// With 36^12 possible codes a collision is already vanishingly rare;
// repeated collisions indicate a store problem.
const maxCodeAttempts = 10

// VerificationCodeRepo provides data access to the verification_codes
// table. Code creation relies on the unique index over the code column
// rather than a pre-check, so concurrent creations can never persist a
// duplicate. Usage bookkeeping is applied through conditional updates
// whose affected-row counts expose lost races to the caller. All
// timestamps are stored in UTC.
type VerificationCodeRepo struct {
    db *sql.DB
}

// NewVerificationCodeRepo returns a new VerificationCodeRepo bound to the
// given database.
func NewVerificationCodeRepo(db *sql.DB) *VerificationCodeRepo { return &VerificationCodeRepo{db: db} }

// DB exposes the underlying handle so the redemption engine can open a
// transaction spanning code mutations and audit-log writes.
func (r *VerificationCodeRepo) DB() *sql.DB { return r.db }

const codeColumns = `id, code, employee_id, employment_id, purpose, status,
               max_usage_count, current_usage_count, expires_at, require_approval,
               allowed_domains, created_at, updated_at, last_used_at`

// Create generates a unique code string and inserts a new ACTIVE record
// for the given employee. The referenced employment must belong to the
// same employee; a missing or foreign record both yield sql.ErrNoRows so
// the caller cannot distinguish other employees' records from absent
// ones. On a duplicate-key collision a fresh code is generated and the
// insert retried, up to maxCodeAttempts times.
func (r *VerificationCodeRepo) Create(ctx context.Context, vc *model.VerificationCode) (model.VerificationCode, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT employee_id FROM employments WHERE id = ?`, vc.EmploymentID).Scan(&ownerID)
    if err != nil {
        return model.VerificationCode{}, err
    }
    if ownerID != vc.EmployeeID {
        return model.VerificationCode{}, sql.ErrNoRows
    }
    for attempt := 0; attempt < maxCodeAttempts; attempt++ {
        code, err := utils.NewVerificationCode()
        if err != nil {
            return model.VerificationCode{}, err
        }
        res, err := r.db.ExecContext(ctx,
            `INSERT INTO verification_codes
                (code, employee_id, employment_id, purpose, status,
                 max_usage_count, expires_at, require_approval, allowed_domains)
             VALUES (?,?,?,?,?,?,?,?,?)`,
            code, vc.EmployeeID, vc.EmploymentID, vc.Purpose, model.CodeStatusActive,
            vc.MaxUsageCount, vc.ExpiresAt.UTC(), vc.RequireApproval, vc.AllowedDomains)
        if err != nil {
            if isDuplicateKey(err) {
                continue
            }
            return model.VerificationCode{}, err
        }
        id, err := res.LastInsertId()
        if err != nil {
            return model.VerificationCode{}, err
        }
        return r.getByID(ctx, uint64(id))
    }
    return model.VerificationCode{}, ErrConflict
}

// GetForEmployee returns a single code. It returns sql.ErrNoRows when the
// code does not exist and ErrForbidden when it belongs to a different
// employee.
func (r *VerificationCodeRepo) GetForEmployee(ctx context.Context, codeID, employeeID uint64) (model.VerificationCode, error) {
    vc, err := r.getByID(ctx, codeID)
    if err != nil {
        return model.VerificationCode{}, err
    }
    if vc.EmployeeID != employeeID {
        return model.VerificationCode{}, ErrForbidden
    }
    return vc, nil
}

// ListByEmployee returns the employee's codes ordered newest first.
func (r *VerificationCodeRepo) ListByEmployee(ctx context.Context, employeeID uint64, offset, limit int) ([]model.VerificationCode, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+codeColumns+` FROM verification_codes
         WHERE employee_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
        employeeID, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.VerificationCode, 0)
    for rows.Next() {
        vc, err := scanCode(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, vc)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Revoke sets the code status to revoked regardless of its current state.
// Revoking an already expired or used code is an idempotent tombstone;
// the row is written either way. Ownership is enforced first.
func (r *VerificationCodeRepo) Revoke(ctx context.Context, codeID, employeeID uint64) (model.VerificationCode, error) {
    if _, err := r.GetForEmployee(ctx, codeID, employeeID); err != nil {
        return model.VerificationCode{}, err
    }
    if _, err := r.db.ExecContext(ctx,
        `UPDATE verification_codes SET status = ? WHERE id = ?`,
        model.CodeStatusRevoked, codeID); err != nil {
        return model.VerificationCode{}, err
    }
    return r.getByID(ctx, codeID)
}

// ExpireDue transitions every ACTIVE code whose expiry is at or before
// the current time to EXPIRED and returns the number of rows affected.
// The redemption engine performs the same flip lazily per code, so this
// sweep only has to keep listings honest between redemptions.
func (r *VerificationCodeRepo) ExpireDue(ctx context.Context) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE verification_codes SET status = ?
         WHERE status = ? AND expires_at <= UTC_TIMESTAMP()`,
        model.CodeStatusExpired, model.CodeStatusActive)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// CodeDetail joins a verification code with the employment record it
// references and the owning employee's display name. The redemption
// engine loads this in one query to build the disclosure snapshot.
type CodeDetail struct {
    Code         model.VerificationCode
    Employment   model.Employment
    EmployeeName string
}

// FindByCodeTx loads a code with its employment and employee details
// within the given transaction. It returns sql.ErrNoRows when no code
// with that string exists.
func (r *VerificationCodeRepo) FindByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*CodeDetail, error) {
    const q = `SELECT vc.id, vc.code, vc.employee_id, vc.employment_id, vc.purpose, vc.status,
                      vc.max_usage_count, vc.current_usage_count, vc.expires_at, vc.require_approval,
                      vc.allowed_domains, vc.created_at, vc.updated_at, vc.last_used_at,
                      e.id, e.employee_id, e.company_name, e.company_location, e.job_title, e.department,
                      e.employment_type, e.employment_status, e.start_date, e.end_date,
                      e.is_verified, e.verification_date, e.created_at, e.updated_at,
                      u.full_name
               FROM verification_codes vc
               JOIN employments e ON e.id = vc.employment_id
               JOIN users u ON u.id = vc.employee_id
               WHERE vc.code = ?`
    var (
        det        CodeDetail
        domains    sql.NullString
        lastUsed   sql.NullTime
        location   sql.NullString
        department sql.NullString
        endDate    sql.NullTime
        verifiedAt sql.NullTime
    )
    err := tx.QueryRowContext(ctx, q, code).Scan(
        &det.Code.ID, &det.Code.Code, &det.Code.EmployeeID, &det.Code.EmploymentID,
        &det.Code.Purpose, &det.Code.Status, &det.Code.MaxUsageCount, &det.Code.CurrentUsageCount,
        &det.Code.ExpiresAt, &det.Code.RequireApproval, &domains,
        &det.Code.CreatedAt, &det.Code.UpdatedAt, &lastUsed,
        &det.Employment.ID, &det.Employment.EmployeeID, &det.Employment.CompanyName,
        &location, &det.Employment.JobTitle, &department,
        &det.Employment.EmploymentType, &det.Employment.EmploymentStatus,
        &det.Employment.StartDate, &endDate,
        &det.Employment.IsVerified, &verifiedAt,
        &det.Employment.CreatedAt, &det.Employment.UpdatedAt,
        &det.EmployeeName,
    )
    if err != nil {
        return nil, err
    }
    if domains.Valid {
        v := domains.String
        det.Code.AllowedDomains = &v
    }
    if lastUsed.Valid {
        v := lastUsed.Time
        det.Code.LastUsedAt = &v
    }
    if location.Valid {
        v := location.String
        det.Employment.CompanyLocation = &v
    }
    if department.Valid {
        v := department.String
        det.Employment.Department = &v
    }
    if endDate.Valid {
        v := endDate.Time
        det.Employment.EndDate = &v
    }
    if verifiedAt.Valid {
        v := verifiedAt.Time
        det.Employment.VerificationDate = &v
    }
    return &det, nil
}

// MarkExpiredTx flips one ACTIVE code to EXPIRED within the given
// transaction. The status guard keeps the transition monotonic; a
// concurrent flip simply makes this a no-op, which is safe because
// expired is terminal.
func (r *VerificationCodeRepo) MarkExpiredTx(ctx context.Context, tx *sql.Tx, codeID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE verification_codes SET status = ? WHERE id = ? AND status = ?`,
        model.CodeStatusExpired, codeID, model.CodeStatusActive)
    return err
}

// ConsumeTx applies one usage of a code as a single conditional update:
// the increment only happens while the code is ACTIVE and below its
// usage limit, and the status flips to USED in the same statement when
// this use reaches the limit. It returns false when no row qualified,
// meaning a concurrent redemption (or a state change) won the race; the
// caller must then reject the attempt rather than retry.
func (r *VerificationCodeRepo) ConsumeTx(ctx context.Context, tx *sql.Tx, codeID uint64) (bool, error) {
    // status is assigned before the counter so the IF sees the
    // pre-increment value; MySQL applies SET clauses left to right.
    res, err := tx.ExecContext(ctx,
        `UPDATE verification_codes
         SET status = IF(current_usage_count + 1 >= max_usage_count, ?, status),
             current_usage_count = current_usage_count + 1,
             last_used_at = UTC_TIMESTAMP()
         WHERE id = ? AND status = ? AND current_usage_count < max_usage_count`,
        model.CodeStatusUsed, codeID, model.CodeStatusActive)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (r *VerificationCodeRepo) getByID(ctx context.Context, id uint64) (model.VerificationCode, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+codeColumns+` FROM verification_codes WHERE id = ?`, id)
    return scanCode(row)
}

func scanCode(row rowScanner) (model.VerificationCode, error) {
    var (
        vc       model.VerificationCode
        domains  sql.NullString
        lastUsed sql.NullTime
    )
    err := row.Scan(&vc.ID, &vc.Code, &vc.EmployeeID, &vc.EmploymentID, &vc.Purpose, &vc.Status,
        &vc.MaxUsageCount, &vc.CurrentUsageCount, &vc.ExpiresAt, &vc.RequireApproval,
        &domains, &vc.CreatedAt, &vc.UpdatedAt, &lastUsed)
    if err != nil {
        return model.VerificationCode{}, err
    }
    if domains.Valid {
        v := domains.String
        vc.AllowedDomains = &v
    }
    if lastUsed.Valid {
        v := lastUsed.Time
        vc.LastUsedAt = &v
    }
    return vc, nil
}
