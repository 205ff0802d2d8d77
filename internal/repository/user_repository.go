package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

// maxIDAttempts bounds the uniqueness retry loops for generated public
// identifiers. The keyspaces are large enough that hitting this limit
// indicates a store problem rather than bad luck.
const maxIDAttempts = 10

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateEmployee inserts an employee user with a freshly generated public
// ID. The public_id column carries a unique index; generation relies on
// that constraint rather than a pre-check, retrying on duplicate-key
// errors so that concurrent registrations can never emit the same ID.
func (r *UserRepo) CreateEmployee(ctx context.Context, email, password, fullName string, cost int) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return model.User{}, err
    }
    for attempt := 0; attempt < maxIDAttempts; attempt++ {
        publicID, err := utils.NewPublicID()
        if err != nil {
            return model.User{}, err
        }
        res, err := r.DB.ExecContext(ctx,
            "INSERT INTO users (public_id, email, password_hash, full_name, role) VALUES (?,?,?,?,?)",
            publicID, email, hash, fullName, model.RoleEmployee)
        if err != nil {
            if isDuplicateKey(err) {
                // The email index and the public_id index share error
                // code 1062; only the public_id collision is retryable.
                if strings.Contains(err.Error(), "public_id") {
                    continue
                }
                return model.User{}, ErrEmailExists
            }
            return model.User{}, err
        }
        id, err := res.LastInsertId()
        if err != nil {
            return model.User{}, err
        }
        return r.GetByID(ctx, uint64(id))
    }
    return model.User{}, ErrConflict
}

// CreateEmployer inserts an employer user with a generated numeric
// employer ID and a company handle derived from the company name. Both
// columns are uniquely indexed; collisions are resolved by retrying with
// a fresh employer ID or a suffixed handle.
func (r *UserRepo) CreateEmployer(ctx context.Context, email, password, fullName, companyName string, cost int) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return model.User{}, err
    }
    for attempt := 0; attempt < maxIDAttempts; attempt++ {
        employerID, err := utils.NewEmployerID()
        if err != nil {
            return model.User{}, err
        }
        handle := utils.CompanyHandle(companyName, attempt)
        res, err := r.DB.ExecContext(ctx,
            "INSERT INTO users (employer_id, company_handle, email, password_hash, full_name, role, company_name) VALUES (?,?,?,?,?,?,?)",
            employerID, handle, email, hash, fullName, model.RoleEmployer, companyName)
        if err != nil {
            if isDuplicateKey(err) {
                if strings.Contains(err.Error(), "employer_id") || strings.Contains(err.Error(), "company_handle") {
                    continue
                }
                return model.User{}, ErrEmailExists
            }
            return model.User{}, err
        }
        id, err := res.LastInsertId()
        if err != nil {
            return model.User{}, err
        }
        return r.GetByID(ctx, uint64(id))
    }
    return model.User{}, ErrConflict
}

const userColumns = "id, public_id, employer_id, company_handle, email, password_hash, full_name, role, is_active, company_name, created_at, updated_at"

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return r.scanOne(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return r.scanOne(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
    var (
        u          model.User
        publicID   sql.NullString
        employerID sql.NullInt64
        handle     sql.NullString
        company    sql.NullString
    )
    err := row.Scan(&u.ID, &publicID, &employerID, &handle, &u.Email, &u.PasswordHash,
        &u.FullName, &u.Role, &u.IsActive, &company, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return model.User{}, err
    }
    if publicID.Valid {
        v := publicID.String
        u.PublicID = &v
    }
    if employerID.Valid {
        v := uint64(employerID.Int64)
        u.EmployerID = &v
    }
    if handle.Valid {
        v := handle.String
        u.CompanyHandle = &v
    }
    if company.Valid {
        v := company.String
        u.CompanyName = &v
    }
    return u, nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (error code 1062).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
