package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
)

// EmploymentRepo provides CRUD operations for employment records. Every
// record belongs to exactly one employee; all read and write paths
// enforce that ownership. All timestamp fields are stored in UTC.
type EmploymentRepo struct {
    db *sql.DB
}

// NewEmploymentRepo returns a new EmploymentRepo bound to the given database.
func NewEmploymentRepo(db *sql.DB) *EmploymentRepo { return &EmploymentRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *EmploymentRepo) DB() *sql.DB { return r.db }

const employmentColumns = `id, employee_id, company_name, company_location, job_title, department,
               employment_type, employment_status, start_date, end_date,
               is_verified, verification_date, created_at, updated_at`

// Create inserts a new employment record for the given employee and
// returns the stored row with generated defaults populated.
func (r *EmploymentRepo) Create(ctx context.Context, e *model.Employment) (model.Employment, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO employments
            (employee_id, company_name, company_location, job_title, department,
             employment_type, employment_status, start_date, end_date)
         VALUES (?,?,?,?,?,?,?,?,?)`,
        e.EmployeeID, e.CompanyName, e.CompanyLocation, e.JobTitle, e.Department,
        e.EmploymentType, e.EmploymentStatus, e.StartDate.UTC(), nullableTime(e.EndDate))
    if err != nil {
        return model.Employment{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Employment{}, err
    }
    return r.getByID(ctx, uint64(id))
}

// GetForEmployee returns a single employment record. It returns
// sql.ErrNoRows when the record does not exist and ErrForbidden when it
// belongs to a different employee.
func (r *EmploymentRepo) GetForEmployee(ctx context.Context, employmentID, employeeID uint64) (model.Employment, error) {
    e, err := r.getByID(ctx, employmentID)
    if err != nil {
        return model.Employment{}, err
    }
    if e.EmployeeID != employeeID {
        return model.Employment{}, ErrForbidden
    }
    return e, nil
}

// ListByEmployee returns the employee's records ordered newest first.
func (r *EmploymentRepo) ListByEmployee(ctx context.Context, employeeID uint64, offset, limit int) ([]model.Employment, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+employmentColumns+` FROM employments
         WHERE employee_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
        employeeID, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Employment, 0)
    for rows.Next() {
        e, err := scanEmployment(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update overwrites the mutable fields of an employment record owned by
// the given employee. Ownership is validated first so that a foreign
// record yields ErrForbidden instead of a silent no-op.
func (r *EmploymentRepo) Update(ctx context.Context, e *model.Employment, employeeID uint64) (model.Employment, error) {
    if _, err := r.GetForEmployee(ctx, e.ID, employeeID); err != nil {
        return model.Employment{}, err
    }
    _, err := r.db.ExecContext(ctx,
        `UPDATE employments SET company_name=?, company_location=?, job_title=?, department=?,
            employment_type=?, employment_status=?, start_date=?, end_date=?
         WHERE id=?`,
        e.CompanyName, e.CompanyLocation, e.JobTitle, e.Department,
        e.EmploymentType, e.EmploymentStatus, e.StartDate.UTC(), nullableTime(e.EndDate), e.ID)
    if err != nil {
        return model.Employment{}, err
    }
    return r.getByID(ctx, e.ID)
}

// Delete removes an employment record owned by the given employee.
func (r *EmploymentRepo) Delete(ctx context.Context, employmentID, employeeID uint64) error {
    if _, err := r.GetForEmployee(ctx, employmentID, employeeID); err != nil {
        return err
    }
    _, err := r.db.ExecContext(ctx, `DELETE FROM employments WHERE id=?`, employmentID)
    return err
}

// SetAsCurrent marks one employment as current and transitions every
// other record of the same employee to ended with an end date of now.
// Both updates run in one transaction.
func (r *EmploymentRepo) SetAsCurrent(ctx context.Context, employmentID, employeeID uint64) (model.Employment, error) {
    if _, err := r.GetForEmployee(ctx, employmentID, employeeID); err != nil {
        return model.Employment{}, err
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return model.Employment{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    now := time.Now().UTC()
    if _, err := tx.ExecContext(ctx,
        `UPDATE employments SET employment_status=?, end_date=? WHERE employee_id=? AND id<>?`,
        model.EmploymentStatusEnded, now, employeeID, employmentID); err != nil {
        return model.Employment{}, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE employments SET employment_status=?, end_date=NULL WHERE id=?`,
        model.EmploymentStatusCurrent, employmentID); err != nil {
        return model.Employment{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Employment{}, err
    }
    committed = true
    return r.getByID(ctx, employmentID)
}

func (r *EmploymentRepo) getByID(ctx context.Context, id uint64) (model.Employment, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+employmentColumns+` FROM employments WHERE id = ?`, id)
    return scanEmployment(row)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanEmployment(row rowScanner) (model.Employment, error) {
    var (
        e          model.Employment
        location   sql.NullString
        department sql.NullString
        endDate    sql.NullTime
        verifiedAt sql.NullTime
    )
    err := row.Scan(&e.ID, &e.EmployeeID, &e.CompanyName, &location, &e.JobTitle, &department,
        &e.EmploymentType, &e.EmploymentStatus, &e.StartDate, &endDate,
        &e.IsVerified, &verifiedAt, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return model.Employment{}, err
    }
    if location.Valid {
        v := location.String
        e.CompanyLocation = &v
    }
    if department.Valid {
        v := department.String
        e.Department = &v
    }
    if endDate.Valid {
        v := endDate.Time
        e.EndDate = &v
    }
    if verifiedAt.Valid {
        v := verifiedAt.Time
        e.VerificationDate = &v
    }
    return e, nil
}

func nullableTime(t *time.Time) interface{} {
    if t == nil {
        return nil
    }
    return t.UTC()
}
