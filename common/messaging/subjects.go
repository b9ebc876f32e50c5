package messaging

// Subject constants for the EduTrack message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// SubjectAuditAuth carries signed authentication audit events
	// (register, login, refresh, logout).
	SubjectAuditAuth = "edutrack.audit.auth"
)

// Header keys attached to published messages.
const (
	HeaderEventType = "Edutrack-Event-Type"
	HeaderSignature = "Edutrack-Signature"
)
