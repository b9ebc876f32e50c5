package models

import "time"

// Audit actions.
const (
	AuditActionRegister = "register"
	AuditActionLogin    = "login"
	AuditActionVerify   = "verify"
	AuditActionRefresh  = "refresh"
	AuditActionLogout   = "logout"
)

// Audit results.
const (
	AuditResultSuccess = "success"
	AuditResultFailure = "failure"
)

// AuditEvent records one authentication outcome. Signature is an HMAC over
// every other field and is empty when signing is disabled.
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Result    string    `json:"result"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Signature string    `json:"signature,omitempty"`
}
