package audit

import "time"

// Outcome classifies what a single audited event amounted to.
type Outcome string

const (
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeFailed           Outcome = "failed"
	OutcomeTimedOut         Outcome = "timed-out"
	OutcomeRejected         Outcome = "rejected"
	OutcomeTrustEstablished Outcome = "trust-established"
	OutcomeTrustForgotten   Outcome = "trust-forgotten"
)

// AuditRecord is an immutable account of one execution attempt or trust
// event. Records are append-only; the repository exposes no update or delete.
type AuditRecord struct {
	ID          string    `gorm:"type:text;primaryKey"`
	ExecutionID string    `gorm:"type:text;index"`
	Host        string    `gorm:"type:text;not null;index:idx_audit_host_time"`
	Command     string    `gorm:"type:text"`
	Actor       string    `gorm:"type:text"`
	Outcome     Outcome   `gorm:"type:text;not null"`
	ErrorKind   string    `gorm:"type:text"`
	ExitCode    int       `gorm:"type:integer"`
	StartedAt   time.Time `gorm:"type:timestamp;not null;index:idx_audit_host_time"`
	FinishedAt  time.Time `gorm:"type:timestamp;not null"`
}
