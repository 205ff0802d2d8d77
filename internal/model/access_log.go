package model

import "time"

// Approval status values stored in access_logs.approval_status.  The
// field is nil for attempts that never required approval.  A decision
// transitions exactly once from pending to approved or denied.
const (
    ApprovalPending  = "pending"
    ApprovalApproved = "approved"
    ApprovalDenied   = "denied"
)

// AccessLog is one row of the append-only redemption audit trail.  Exactly
// one entry is written per redemption attempt, success or failure.  The
// success/error fields are immutable once written; only the approval
// subfields may change, and only once.
//
// Fields:
//  ID                 – primary key identifier.
//  VerificationCodeID – redeemed code, nil when the presented code was unknown.
//  EmployerID         – requesting employer (users.id).
//  AccessedAt         – when the attempt happened (UTC).
//  IPAddress          – caller IP, when captured.
//  UserAgent          – caller user agent, when captured.
//  RequestPurpose     – purpose stated by the employer.
//  Success            – whether the redemption succeeded.
//  ErrorMessage       – rejection reason for failed attempts.
//  DataAccessed       – JSON snapshot of the fields actually disclosed.
//  RequiresApproval   – copied from the code at redemption time.
//  ApprovalStatus     – pending/approved/denied, nil when not applicable.
//  ApprovedBy         – employee who decided, nil until decided.
//  ApprovedAt         – decision timestamp, nil until decided.
//  CreatedAt          – row creation timestamp.
type AccessLog struct {
    ID                 uint64     // access_logs.id
    VerificationCodeID *uint64    // access_logs.verification_code_id (nullable)
    EmployerID         uint64     // access_logs.employer_id
    AccessedAt         time.Time  // access_logs.accessed_at
    IPAddress          *string    // access_logs.ip_address (nullable)
    UserAgent          *string    // access_logs.user_agent (nullable)
    RequestPurpose     *string    // access_logs.request_purpose (nullable)
    Success            bool       // access_logs.success
    ErrorMessage       *string    // access_logs.error_message (nullable)
    DataAccessed       []byte     // access_logs.data_accessed (JSON, nullable)
    RequiresApproval   bool       // access_logs.requires_approval
    ApprovalStatus     *string    // access_logs.approval_status (nullable)
    ApprovedBy         *uint64    // access_logs.approved_by (nullable)
    ApprovedAt         *time.Time // access_logs.approved_at (nullable)
    CreatedAt          time.Time  // access_logs.created_at
}
