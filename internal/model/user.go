package model

import "time"

// Role names stored in the users.role column and carried in the JWT
// "role" claim.  Employees own employment records and issue verification
// codes; employers redeem codes to confirm employment facts.
const (
    RoleEmployee = "EMPLOYEE"
    RoleEmployer = "EMPLOYER"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Employees
// carry a public alphanumeric PublicID; employers carry a numeric
// EmployerID and a company handle.  Handlers define separate response
// types with appropriate JSON tags.
//
// Fields:
//  ID            – primary key identifier of the user.
//  PublicID      – public 6-char alphanumeric ID (employees only, nullable).
//  EmployerID    – internal numeric ID 100000–999999 (employers only, nullable).
//  CompanyHandle – public handle derived from company name (employers only).
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  FullName      – display name disclosed on successful verification.
//  Role          – EMPLOYEE or EMPLOYER.
//  IsActive      – whether the account is active.
//  CompanyName   – employer company name (nullable).
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
    ID            uint64    // users.id
    PublicID      *string   // users.public_id (nullable)
    EmployerID    *uint64   // users.employer_id (nullable)
    CompanyHandle *string   // users.company_handle (nullable)
    Email         string    // users.email
    PasswordHash  string    // users.password_hash
    FullName      string    // users.full_name
    Role          string    // users.role
    IsActive      bool      // users.is_active
    CompanyName   *string   // users.company_name (nullable)
    CreatedAt     time.Time // users.created_at
    UpdatedAt     time.Time // users.updated_at
}
