package credentials

import "time"

// CredentialType identifies what a stored secret is used for.
type CredentialType string

const (
	CredentialTypeControlPlaneToken CredentialType = "control-plane-token"
	CredentialTypePrivateKey        CredentialType = "private-key"
	CredentialTypeSudoPassword      CredentialType = "sudo-password"
	CredentialTypeLoginPassword     CredentialType = "login-password"
)

// ScopeGlobal is the host value of a credential that applies to every host
// without a host-specific entry of the same type.
const ScopeGlobal = "*"

func (t CredentialType) IsValid() bool {
	switch t {
	case CredentialTypeControlPlaneToken, CredentialTypePrivateKey, CredentialTypeSudoPassword, CredentialTypeLoginPassword:
		return true
	}
	return false
}

type Credential struct {
	ID         string         `gorm:"type:text;primaryKey"`
	Type       CredentialType `gorm:"type:text;not null;uniqueIndex:idx_credential_type_host"`
	Host       string         `gorm:"type:text;not null;uniqueIndex:idx_credential_type_host"`
	Ciphertext string         `gorm:"type:text;not null"`
	CreatedAt  time.Time      `gorm:"type:timestamp;not null"`
	UpdatedAt  time.Time      `gorm:"type:timestamp;not null"`
}

// TypeStatus reports whether a credential of a given type is configured for a
// host and at which scope it resolves. Secrets are never included.
type TypeStatus struct {
	Type       CredentialType `json:"type"`
	Configured bool           `json:"configured"`
	Scope      string         `json:"scope,omitempty"` // "host" or "global"
}
