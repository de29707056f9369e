package hostkeys

import (
	"fmt"
	"time"

	"hostpilot/internal/audit"
	"hostpilot/internal/logger"

	"golang.org/x/crypto/ssh"
)

// Service is the trust-on-first-use host registry. The first fingerprint a
// host presents is pinned; any later mismatch refuses the connection until an
// operator explicitly forgets the host.
type Service struct {
	repository *Repository
	auditLog   *audit.Repository
}

func NewService(repository *Repository, auditLog *audit.Repository) *Service {
	return &Service{
		repository: repository,
		auditLog:   auditLog,
	}
}

// Verify checks the public key a host presented during the SSH handshake.
// First contact pins the fingerprint and emits a trust-established audit
// event. A differing fingerprint on a known host returns ErrHostKeyMismatch.
func (s *Service) Verify(host string, remote ssh.PublicKey) error {
	return s.VerifyFingerprint(host, ssh.FingerprintSHA256(remote))
}

// VerifyFingerprint is the transport-independent core of Verify.
func (s *Service) VerifyFingerprint(host string, fingerprint string) error {
	hostKey, err := s.repository.Get(host)

	if err != nil {
		return err
	}

	if hostKey == nil {
		if _, err := s.repository.Save(host, fingerprint); err != nil {
			return err
		}

		now := time.Now()
		if err := s.auditLog.Append(&audit.AuditRecord{
			Host:       host,
			Actor:      "hostpilot",
			Outcome:    audit.OutcomeTrustEstablished,
			StartedAt:  now,
			FinishedAt: now,
		}); err != nil {
			return err
		}

		logger.Info("Trust established for host %s (%s)", host, fingerprint)
		return nil
	}

	if hostKey.Fingerprint != fingerprint {
		return fmt.Errorf("%w: host %s presented %s, pinned %s", ErrHostKeyMismatch, host, fingerprint, hostKey.Fingerprint)
	}

	return nil
}

// Forget drops the pinned fingerprint for a host. This is the only path to
// re-trusting a host after a mismatch and is always an explicit operator
// action. The forget itself is audited.
func (s *Service) Forget(host string, actor string) (bool, error) {
	forgotten, err := s.repository.Delete(host)

	if err != nil {
		return false, err
	}

	if !forgotten {
		return false, nil
	}

	now := time.Now()
	if err := s.auditLog.Append(&audit.AuditRecord{
		Host:       host,
		Actor:      actor,
		Outcome:    audit.OutcomeTrustForgotten,
		StartedAt:  now,
		FinishedAt: now,
	}); err != nil {
		return true, err
	}

	logger.Info("Trust forgotten for host %s", host)
	return true, nil
}

// List returns every pinned host key, ordered by host.
func (s *Service) List() ([]*HostKey, error) {
	return s.repository.GetAll()
}
