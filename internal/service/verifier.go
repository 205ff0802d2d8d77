// Package service contains the redemption engine: the single synchronous
// operation through which employers redeem verification codes. Each
// attempt runs in one database transaction covering the audit-log write
// and any code mutation, so a crash mid-redemption can never leave a
// mutated code without its audit entry or vice versa.
package service

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/model"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/utils"
)

// Rejection and success messages returned to employers. Business-rule
// rejections are normal responses, not errors: they are always logged
// and always carry success=false with one of these messages.
const (
    MsgInvalidCode        = "Invalid verification code"
    MsgCodeExpired        = "Verification code has expired"
    MsgUsageLimitExceeded = "Verification code usage limit exceeded"
    MsgVerified           = "Employment verification successful"
)

// VerifyRequest carries one redemption attempt: the presented code, the
// authenticated employer and the request metadata recorded for audit.
type VerifyRequest struct {
    Code       string
    EmployerID uint64
    IPAddress  string
    UserAgent  string
    Purpose    string
}

// Snapshot is the bounded set of employment fields disclosed to an
// employer on successful redemption. It is returned to the caller and
// stored verbatim in the audit row's data_accessed column.
type Snapshot struct {
    EmploymentID     uint64  `json:"employment_id"`
    CompanyName      string  `json:"company_name"`
    JobTitle         string  `json:"job_title"`
    EmploymentType   string  `json:"employment_type"`
    EmploymentStatus string  `json:"employment_status"`
    StartDate        string  `json:"start_date"`
    EndDate          *string `json:"end_date"`
    Department       *string `json:"department"`
    Location         *string `json:"location"`
    IsVerified       bool    `json:"is_verified"`
    VerificationDate *string `json:"verification_date"`
}

// Outcome is the structured result of a redemption attempt. Business
// rejections set Success=false with a human-readable message; only store
// faults surface as errors.
type Outcome struct {
    Success          bool       `json:"success"`
    Message          string     `json:"message"`
    Data             *Snapshot  `json:"data,omitempty"`
    EmployeeName     string     `json:"employee_name,omitempty"`
    CompanyName      string     `json:"company_name,omitempty"`
    JobTitle         string     `json:"job_title,omitempty"`
    EmploymentStatus string     `json:"employment_status,omitempty"`
    VerifiedAt       *time.Time `json:"verification_date,omitempty"`

    // Audit references for downstream event publishing, not part of the
    // response body.
    AccessLogID        uint64  `json:"-"`
    VerificationCodeID *uint64 `json:"-"`
    RequiresApproval   bool    `json:"-"`
}

// Verifier is the redemption engine. It owns no state beyond its
// repositories; every attempt opens its own transaction on the shared
// database handle.
type Verifier struct {
    Codes *repository.VerificationCodeRepo
    Logs  *repository.AccessLogRepo
}

// NewVerifier constructs a Verifier and panics if any dependency is nil.
func NewVerifier(codes *repository.VerificationCodeRepo, logs *repository.AccessLogRepo) *Verifier {
    if codes == nil || logs == nil {
        panic("nil repository passed to NewVerifier")
    }
    return &Verifier{Codes: codes, Logs: logs}
}

// VerifyCode evaluates one redemption attempt as an ordered decision
// chain: lookup, status check, expiry check, usage check, accept. The
// first rejecting step writes a failure audit row and returns; the
// accept path consumes one usage atomically and writes a success row
// with the disclosure snapshot. Exactly one audit row is committed per
// call regardless of outcome.
func (v *Verifier) VerifyCode(ctx context.Context, req VerifyRequest) (Outcome, error) {
    tx, err := v.Codes.DB().BeginTx(ctx, nil)
    if err != nil {
        return Outcome{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if !utils.ValidCodeFormat(req.Code) {
        // A malformed string can never match a stored code, so the
        // lookup is skipped — but the attempt is still audited like any
        // other invalid code.
        logID, err := v.reject(ctx, tx, req, nil, "Invalid verification code", &committed)
        if err != nil {
            return Outcome{}, err
        }
        return Outcome{Success: false, Message: MsgInvalidCode, AccessLogID: logID}, nil
    }

    detail, err := v.Codes.FindByCodeTx(ctx, tx, req.Code)
    if err != nil {
        if !errors.Is(err, sql.ErrNoRows) {
            return Outcome{}, err
        }
        // Unknown code: the audit entry carries no code reference.
        logID, err := v.reject(ctx, tx, req, nil, "Invalid verification code", &committed)
        if err != nil {
            return Outcome{}, err
        }
        return Outcome{Success: false, Message: MsgInvalidCode, AccessLogID: logID}, nil
    }
    code := &detail.Code

    if code.Status != model.CodeStatusActive {
        msg := "Verification code is " + code.Status
        logID, err := v.reject(ctx, tx, req, &code.ID, "Code is "+code.Status, &committed)
        if err != nil {
            return Outcome{}, err
        }
        return Outcome{Success: false, Message: msg, AccessLogID: logID, VerificationCodeID: &code.ID}, nil
    }

    if !code.ExpiresAt.After(time.Now().UTC()) {
        // Lazy expiry: flip the status in the same transaction as the
        // audit row. The flip is monotonic, so losing a race with a
        // concurrent attempt or the sweeper is harmless.
        if err := v.Codes.MarkExpiredTx(ctx, tx, code.ID); err != nil {
            return Outcome{}, err
        }
        logID, err := v.reject(ctx, tx, req, &code.ID, "Code has expired", &committed)
        if err != nil {
            return Outcome{}, err
        }
        return Outcome{Success: false, Message: MsgCodeExpired, AccessLogID: logID, VerificationCodeID: &code.ID}, nil
    }

    if code.CurrentUsageCount >= code.MaxUsageCount {
        logID, err := v.reject(ctx, tx, req, &code.ID, "Code usage limit exceeded", &committed)
        if err != nil {
            return Outcome{}, err
        }
        return Outcome{Success: false, Message: MsgUsageLimitExceeded, AccessLogID: logID, VerificationCodeID: &code.ID}, nil
    }

    consumed, err := v.Codes.ConsumeTx(ctx, tx, code.ID)
    if err != nil {
        return Outcome{}, err
    }
    if !consumed {
        // A concurrent redemption took the last usage (or the state
        // changed) between our read and the conditional update.
        logID, err := v.reject(ctx, tx, req, &code.ID, "Code usage limit exceeded", &committed)
        if err != nil {
            return Outcome{}, err
        }
        return Outcome{Success: false, Message: MsgUsageLimitExceeded, AccessLogID: logID, VerificationCodeID: &code.ID}, nil
    }

    snapshot := buildSnapshot(&detail.Employment)
    data, err := json.Marshal(snapshot)
    if err != nil {
        return Outcome{}, err
    }
    entry := &model.AccessLog{
        VerificationCodeID: &code.ID,
        EmployerID:         req.EmployerID,
        Success:            true,
        DataAccessed:       data,
        RequiresApproval:   code.RequireApproval,
    }
    if code.RequireApproval {
        pending := model.ApprovalPending
        entry.ApprovalStatus = &pending
    }
    applyRequestMeta(entry, req)
    if err := v.Logs.InsertTx(ctx, tx, entry); err != nil {
        return Outcome{}, err
    }
    if err := tx.Commit(); err != nil {
        return Outcome{}, err
    }
    committed = true

    now := time.Now().UTC()
    return Outcome{
        Success:            true,
        Message:            MsgVerified,
        Data:               snapshot,
        EmployeeName:       detail.EmployeeName,
        CompanyName:        detail.Employment.CompanyName,
        JobTitle:           detail.Employment.JobTitle,
        EmploymentStatus:   detail.Employment.EmploymentStatus,
        VerifiedAt:         &now,
        AccessLogID:        entry.ID,
        VerificationCodeID: &code.ID,
        RequiresApproval:   code.RequireApproval,
    }, nil
}

// reject writes a failure audit row and commits the attempt's
// transaction, returning the new audit row's ID. errMsg is the internal
// reason recorded in the audit row; the caller returns the outward
// message separately.
func (v *Verifier) reject(ctx context.Context, tx *sql.Tx, req VerifyRequest, codeID *uint64, errMsg string, committed *bool) (uint64, error) {
    entry := &model.AccessLog{
        VerificationCodeID: codeID,
        EmployerID:         req.EmployerID,
        Success:            false,
        ErrorMessage:       &errMsg,
    }
    applyRequestMeta(entry, req)
    if err := v.Logs.InsertTx(ctx, tx, entry); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    *committed = true
    return entry.ID, nil
}

func applyRequestMeta(entry *model.AccessLog, req VerifyRequest) {
    if req.IPAddress != "" {
        v := req.IPAddress
        entry.IPAddress = &v
    }
    if req.UserAgent != "" {
        v := req.UserAgent
        entry.UserAgent = &v
    }
    if req.Purpose != "" {
        v := req.Purpose
        entry.RequestPurpose = &v
    }
}

func buildSnapshot(e *model.Employment) *Snapshot {
    s := &Snapshot{
        EmploymentID:     e.ID,
        CompanyName:      e.CompanyName,
        JobTitle:         e.JobTitle,
        EmploymentType:   e.EmploymentType,
        EmploymentStatus: e.EmploymentStatus,
        StartDate:        e.StartDate.UTC().Format(time.RFC3339),
        Department:       e.Department,
        Location:         e.CompanyLocation,
        IsVerified:       e.IsVerified,
    }
    if e.EndDate != nil {
        v := e.EndDate.UTC().Format(time.RFC3339)
        s.EndDate = &v
    }
    if e.VerificationDate != nil {
        v := e.VerificationDate.UTC().Format(time.RFC3339)
        s.VerificationDate = &v
    }
    return s
}
