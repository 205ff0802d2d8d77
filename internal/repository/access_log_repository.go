package repository

import (
    "context"
    "database/sql"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
)

// AccessLogRepo provides data access to the access_logs table, the
// append-only audit trail of redemption attempts. Rows are inserted
// exactly once per attempt and never updated afterwards, with the sole
// exception of the approval-workflow columns, which transition exactly
// once from pending to approved or denied.
type AccessLogRepo struct {
    db *sql.DB
}

// NewAccessLogRepo returns a new AccessLogRepo bound to the given database.
func NewAccessLogRepo(db *sql.DB) *AccessLogRepo { return &AccessLogRepo{db: db} }

const logColumns = `id, verification_code_id, employer_id, accessed_at, ip_address, user_agent,
               request_purpose, success, error_message, data_accessed,
               requires_approval, approval_status, approved_by, approved_at, created_at`

// InsertTx appends one audit row within the given transaction. The
// redemption engine calls this on every attempt so that the audit write
// commits or rolls back together with any code mutation.
func (r *AccessLogRepo) InsertTx(ctx context.Context, tx *sql.Tx, entry *model.AccessLog) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO access_logs
            (verification_code_id, employer_id, ip_address, user_agent, request_purpose,
             success, error_message, data_accessed, requires_approval, approval_status)
         VALUES (?,?,?,?,?,?,?,?,?,?)`,
        nullableID(entry.VerificationCodeID), entry.EmployerID,
        entry.IPAddress, entry.UserAgent, entry.RequestPurpose,
        entry.Success, entry.ErrorMessage, nullableJSON(entry.DataAccessed),
        entry.RequiresApproval, entry.ApprovalStatus)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    entry.ID = uint64(id)
    return nil
}

// ListByEmployee returns audit rows for every code the employee owns,
// joining through verification_codes, newest first.
func (r *AccessLogRepo) ListByEmployee(ctx context.Context, employeeID uint64, offset, limit int) ([]model.AccessLog, error) {
    const q = `SELECT al.id, al.verification_code_id, al.employer_id, al.accessed_at, al.ip_address,
                      al.user_agent, al.request_purpose, al.success, al.error_message, al.data_accessed,
                      al.requires_approval, al.approval_status, al.approved_by, al.approved_at, al.created_at
               FROM access_logs al
               JOIN verification_codes vc ON vc.id = al.verification_code_id
               WHERE vc.employee_id = ?
               ORDER BY al.accessed_at DESC LIMIT ? OFFSET ?`
    return r.list(ctx, q, employeeID, limit, offset)
}

// ListByEmployer returns the employer's own redemption attempts, newest
// first.
func (r *AccessLogRepo) ListByEmployer(ctx context.Context, employerID uint64, offset, limit int) ([]model.AccessLog, error) {
    const q = `SELECT ` + logColumns + ` FROM access_logs
               WHERE employer_id = ?
               ORDER BY accessed_at DESC LIMIT ? OFFSET ?`
    return r.list(ctx, q, employerID, limit, offset)
}

// ListByCode returns audit rows for one verification code. When the code
// does not belong to the requesting employee, an empty slice is returned
// rather than an error so the response does not reveal whether the code
// exists.
func (r *AccessLogRepo) ListByCode(ctx context.Context, codeID, employeeID uint64, offset, limit int) ([]model.AccessLog, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT employee_id FROM verification_codes WHERE id = ?`, codeID).Scan(&ownerID)
    if err != nil || ownerID != employeeID {
        if err != nil && err != sql.ErrNoRows {
            return nil, err
        }
        return []model.AccessLog{}, nil
    }
    const q = `SELECT ` + logColumns + ` FROM access_logs
               WHERE verification_code_id = ?
               ORDER BY accessed_at DESC LIMIT ? OFFSET ?`
    return r.list(ctx, q, codeID, limit, offset)
}

// ListPendingApprovals returns undecided approval-gated attempts against
// the employee's codes, newest first.
func (r *AccessLogRepo) ListPendingApprovals(ctx context.Context, employeeID uint64, offset, limit int) ([]model.AccessLog, error) {
    const q = `SELECT al.id, al.verification_code_id, al.employer_id, al.accessed_at, al.ip_address,
                      al.user_agent, al.request_purpose, al.success, al.error_message, al.data_accessed,
                      al.requires_approval, al.approval_status, al.approved_by, al.approved_at, al.created_at
               FROM access_logs al
               JOIN verification_codes vc ON vc.id = al.verification_code_id
               WHERE vc.employee_id = ? AND al.requires_approval = TRUE AND al.approval_status = ?
               ORDER BY al.accessed_at DESC LIMIT ? OFFSET ?`
    return r.list(ctx, q, employeeID, model.ApprovalPending, limit, offset)
}

// GetForViewer returns a single audit row after checking that the viewer
// may see it: employees through code ownership, employers through the
// employer_id column. It returns sql.ErrNoRows when the row does not
// exist and ErrForbidden when the viewer has no claim on it.
func (r *AccessLogRepo) GetForViewer(ctx context.Context, logID, viewerID uint64, viewerRole string) (model.AccessLog, error) {
    entry, err := r.getByID(ctx, logID)
    if err != nil {
        return model.AccessLog{}, err
    }
    switch viewerRole {
    case model.RoleEmployer:
        if entry.EmployerID != viewerID {
            return model.AccessLog{}, ErrForbidden
        }
    case model.RoleEmployee:
        if entry.VerificationCodeID == nil {
            return model.AccessLog{}, ErrForbidden
        }
        var ownerID uint64
        err := r.db.QueryRowContext(ctx,
            `SELECT employee_id FROM verification_codes WHERE id = ?`,
            *entry.VerificationCodeID).Scan(&ownerID)
        if err != nil {
            return model.AccessLog{}, err
        }
        if ownerID != viewerID {
            return model.AccessLog{}, ErrForbidden
        }
    default:
        return model.AccessLog{}, ErrForbidden
    }
    return entry, nil
}

// Decide records an approval decision on an audit row. The decision is
// write-once: the update is guarded so it only applies while the row is
// still pending (or was never explicitly marked), and a second decision
// surfaces ErrConflict. Only the employee owning the underlying code may
// decide.
func (r *AccessLogRepo) Decide(ctx context.Context, logID, approverID uint64, status string) (model.AccessLog, error) {
    entry, err := r.getByID(ctx, logID)
    if err != nil {
        return model.AccessLog{}, err
    }
    if entry.VerificationCodeID == nil {
        return model.AccessLog{}, ErrForbidden
    }
    var ownerID uint64
    if err := r.db.QueryRowContext(ctx,
        `SELECT employee_id FROM verification_codes WHERE id = ?`,
        *entry.VerificationCodeID).Scan(&ownerID); err != nil {
        return model.AccessLog{}, err
    }
    if ownerID != approverID {
        return model.AccessLog{}, ErrForbidden
    }
    res, err := r.db.ExecContext(ctx,
        `UPDATE access_logs
         SET approval_status = ?, approved_by = ?, approved_at = UTC_TIMESTAMP()
         WHERE id = ? AND (approval_status IS NULL OR approval_status = ?)`,
        status, approverID, logID, model.ApprovalPending)
    if err != nil {
        return model.AccessLog{}, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return model.AccessLog{}, err
    }
    if n == 0 {
        return model.AccessLog{}, ErrConflict
    }
    return r.getByID(ctx, logID)
}

// AccessStats summarises an actor's redemption activity for analytics.
type AccessStats struct {
    TotalRequests      int64   `json:"total_requests"`
    SuccessfulRequests int64   `json:"successful_requests"`
    FailedRequests     int64   `json:"failed_requests"`
    SuccessRate        float64 `json:"success_rate"`
    RecentRequests     int64   `json:"recent_requests"`
}

// StatsByEmployee aggregates attempts against the employee's codes,
// including a last-30-days activity count.
func (r *AccessLogRepo) StatsByEmployee(ctx context.Context, employeeID uint64) (AccessStats, error) {
    const q = `SELECT COUNT(*),
                      COALESCE(SUM(al.success), 0),
                      COALESCE(SUM(al.accessed_at >= UTC_TIMESTAMP() - INTERVAL 30 DAY), 0)
               FROM access_logs al
               JOIN verification_codes vc ON vc.id = al.verification_code_id
               WHERE vc.employee_id = ?`
    return r.stats(ctx, q, employeeID)
}

// StatsByEmployer aggregates the employer's own attempts.
func (r *AccessLogRepo) StatsByEmployer(ctx context.Context, employerID uint64) (AccessStats, error) {
    const q = `SELECT COUNT(*),
                      COALESCE(SUM(success), 0),
                      COALESCE(SUM(accessed_at >= UTC_TIMESTAMP() - INTERVAL 30 DAY), 0)
               FROM access_logs
               WHERE employer_id = ?`
    return r.stats(ctx, q, employerID)
}

func (r *AccessLogRepo) stats(ctx context.Context, q string, actorID uint64) (AccessStats, error) {
    var s AccessStats
    if err := r.db.QueryRowContext(ctx, q, actorID).Scan(
        &s.TotalRequests, &s.SuccessfulRequests, &s.RecentRequests); err != nil {
        return AccessStats{}, err
    }
    s.FailedRequests = s.TotalRequests - s.SuccessfulRequests
    if s.TotalRequests > 0 {
        s.SuccessRate = float64(s.SuccessfulRequests) / float64(s.TotalRequests) * 100
    }
    return s, nil
}

func (r *AccessLogRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.AccessLog, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.AccessLog, 0)
    for rows.Next() {
        entry, err := scanAccessLog(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, entry)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

func (r *AccessLogRepo) getByID(ctx context.Context, id uint64) (model.AccessLog, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+logColumns+` FROM access_logs WHERE id = ?`, id)
    return scanAccessLog(row)
}

func scanAccessLog(row rowScanner) (model.AccessLog, error) {
    var (
        entry      model.AccessLog
        codeID     sql.NullInt64
        ip         sql.NullString
        agent      sql.NullString
        purpose    sql.NullString
        errMsg     sql.NullString
        data       []byte
        approval   sql.NullString
        approvedBy sql.NullInt64
        approvedAt sql.NullTime
    )
    err := row.Scan(&entry.ID, &codeID, &entry.EmployerID, &entry.AccessedAt, &ip,
        &agent, &purpose, &entry.Success, &errMsg, &data,
        &entry.RequiresApproval, &approval, &approvedBy, &approvedAt, &entry.CreatedAt)
    if err != nil {
        return model.AccessLog{}, err
    }
    if codeID.Valid {
        v := uint64(codeID.Int64)
        entry.VerificationCodeID = &v
    }
    if ip.Valid {
        v := ip.String
        entry.IPAddress = &v
    }
    if agent.Valid {
        v := agent.String
        entry.UserAgent = &v
    }
    if purpose.Valid {
        v := purpose.String
        entry.RequestPurpose = &v
    }
    if errMsg.Valid {
        v := errMsg.String
        entry.ErrorMessage = &v
    }
    entry.DataAccessed = data
    if approval.Valid {
        v := approval.String
        entry.ApprovalStatus = &v
    }
    if approvedBy.Valid {
        v := uint64(approvedBy.Int64)
        entry.ApprovedBy = &v
    }
    if approvedAt.Valid {
        v := approvedAt.Time
        entry.ApprovedAt = &v
    }
    return entry, nil
}

func nullableID(id *uint64) interface{} {
    if id == nil {
        return nil
    }
    return *id
}

func nullableJSON(b []byte) interface{} {
    if len(b) == 0 {
        return nil
    }
    return b
}
