// Package queue defines message payloads exchanged over the message
// broker, the publisher for redemption events and the background
// consumer that mirrors them to a local log file.
package queue

// VerificationAttemptedEvent is published after every redemption attempt
// commits, success or failure. It contains enough information for
// downstream consumers to notify employees or feed analytics without
// querying the primary database. The disclosure snapshot itself is
// deliberately excluded; consumers needing it must go through the
// role-scoped audit log API.
type VerificationAttemptedEvent struct {
    AccessLogID        uint64  `json:"access_log_id"`
    VerificationCodeID *uint64 `json:"verification_code_id,omitempty"`
    Code               string  `json:"code"`
    EmployerID         uint64  `json:"employer_id"`
    Success            bool    `json:"success"`
    Message            string  `json:"message"`
    RequiresApproval   bool    `json:"requires_approval"`
    AttemptedAt        string  `json:"attempted_at"`
}
