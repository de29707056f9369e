package credentials

import (
	"fmt"

	"hostpilot/internal/encryption"
)

// Service is the credential store: secrets are sealed with the master-key
// encryption service before they touch the database, and resolution follows
// the host-specific → global fallback chain.
type Service struct {
	repository *Repository
	encryption *encryption.Service
}

func NewService(repository *Repository, encryptionService *encryption.Service) *Service {
	return &Service{
		repository: repository,
		encryption: encryptionService,
	}
}

// Store seals plaintext and persists it for the (type, host) pair. Pass
// ScopeGlobal as host for a global credential. Plaintext is never persisted
// and never logged.
func (s *Service) Store(credentialType CredentialType, host string, plaintext []byte) (string, error) {
	if !credentialType.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidCredentialType, credentialType)
	}

	if len(plaintext) == 0 {
		return "", ErrEmptySecret
	}

	ciphertext, err := s.encryption.Seal(plaintext)

	if err != nil {
		return "", err
	}

	credential, err := s.repository.Upsert(credentialType, host, ciphertext)

	if err != nil {
		return "", err
	}

	return credential.ID, nil
}

// Resolve returns the effective secret for (type, host): the host-specific
// entry if present, the global entry otherwise. The second return value is
// false when neither exists. Pure two-step lookup, no side effects.
func (s *Service) Resolve(credentialType CredentialType, host string) ([]byte, bool, error) {
	credential, err := s.repository.Get(credentialType, host)

	if err != nil {
		return nil, false, err
	}

	if credential == nil {
		credential, err = s.repository.Get(credentialType, ScopeGlobal)

		if err != nil {
			return nil, false, err
		}
	}

	if credential == nil {
		return nil, false, nil
	}

	plaintext, err := s.encryption.Open(credential.Ciphertext)

	if err != nil {
		return nil, false, err
	}

	return plaintext, true, nil
}

// Delete removes the credential for (type, host). Deleting an absent entry is
// not an error; the first return value reports whether anything was removed.
func (s *Service) Delete(credentialType CredentialType, host string) (bool, error) {
	if !credentialType.IsValid() {
		return false, fmt.Errorf("%w: %s", ErrInvalidCredentialType, credentialType)
	}

	return s.repository.Delete(credentialType, host)
}

// Status reports, per credential type, whether a credential is configured for
// the host and at which scope it would resolve. Secrets are never decrypted.
func (s *Service) Status(host string) ([]TypeStatus, error) {
	allTypes := []CredentialType{
		CredentialTypeControlPlaneToken,
		CredentialTypePrivateKey,
		CredentialTypeSudoPassword,
		CredentialTypeLoginPassword,
	}

	statuses := make([]TypeStatus, 0, len(allTypes))

	for _, credentialType := range allTypes {
		status := TypeStatus{Type: credentialType}

		hostCredential, err := s.repository.Get(credentialType, host)

		if err != nil {
			return nil, err
		}

		if hostCredential != nil {
			status.Configured = true
			status.Scope = "host"
			statuses = append(statuses, status)
			continue
		}

		globalCredential, err := s.repository.Get(credentialType, ScopeGlobal)

		if err != nil {
			return nil, err
		}

		if globalCredential != nil {
			status.Configured = true
			status.Scope = "global"
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}
