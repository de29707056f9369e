package hostkeys

import "time"

// HostKey pins the fingerprint a host presented on first contact.
type HostKey struct {
	Host        string    `gorm:"type:text;primaryKey"`
	Fingerprint string    `gorm:"type:text;not null"`
	AcceptedAt  time.Time `gorm:"type:timestamp;not null"`
}
