package model

import "time"

// Verification code status values stored in verification_codes.status.
// A code starts ACTIVE and moves exactly once into one of the terminal
// states; no terminal state ever transitions back to active.
const (
    CodeStatusActive  = "active"
    CodeStatusExpired = "expired"
    CodeStatusRevoked = "revoked"
    CodeStatusUsed    = "used"
)

// VerificationCode is a limited-use token an employee issues against one
// of their employment records.  The code string has the fixed format
// SL-XXXX-XXXX-XXXX and is globally unique.  Usage bookkeeping is only
// ever mutated by the redemption engine (atomic consume, expiry flip) or
// by an explicit owner revoke.
//
// Fields:
//  ID                – primary key identifier.
//  Code              – unique external code string (SL-XXXX-XXXX-XXXX).
//  EmployeeID        – owning employee (users.id).
//  EmploymentID      – referenced employment record.
//  Purpose           – human-readable purpose, e.g. "Job application at Acme".
//  Status            – one of the CodeStatus* constants.
//  MaxUsageCount     – maximum number of successful redemptions (>= 1).
//  CurrentUsageCount – successful redemptions so far; never exceeds max.
//  ExpiresAt         – absolute expiry timestamp (UTC).
//  RequireApproval   – when set, successful redemptions are gated behind
//                      an employee approval decision on the audit entry.
//  AllowedDomains    – optional comma-separated employer domain allow-list.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
//  LastUsedAt        – timestamp of the most recent successful redemption.
type VerificationCode struct {
    ID                uint64     // verification_codes.id
    Code              string     // verification_codes.code
    EmployeeID        uint64     // verification_codes.employee_id
    EmploymentID      uint64     // verification_codes.employment_id
    Purpose           string     // verification_codes.purpose
    Status            string     // verification_codes.status
    MaxUsageCount     uint32     // verification_codes.max_usage_count
    CurrentUsageCount uint32     // verification_codes.current_usage_count
    ExpiresAt         time.Time  // verification_codes.expires_at
    RequireApproval   bool       // verification_codes.require_approval
    AllowedDomains    *string    // verification_codes.allowed_domains (nullable)
    CreatedAt         time.Time  // verification_codes.created_at
    UpdatedAt         time.Time  // verification_codes.updated_at
    LastUsedAt        *time.Time // verification_codes.last_used_at (nullable)
}

// Terminal reports whether the code status admits no further transitions.
func (v *VerificationCode) Terminal() bool {
    return v.Status != CodeStatusActive
}
