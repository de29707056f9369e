package hostkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"hostpilot/internal/audit"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/ssh"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *audit.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})

	if err != nil {
		t.Fatalf("open in-memory db failed: %v", err)
	}

	if err := db.AutoMigrate(&HostKey{}, &audit.AuditRecord{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	auditRepository := audit.NewRepository(db)

	return NewService(NewRepository(db), auditRepository), auditRepository
}

func newPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)

	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}

	sshKey, err := ssh.NewPublicKey(publicKey)

	if err != nil {
		t.Fatalf("wrap key failed: %v", err)
	}

	return sshKey
}

func TestFirstContactPinsFingerprint(t *testing.T) {
	service, auditRepository := newTestService(t)
	key := newPublicKey(t)

	if err := service.Verify("host-a", key); err != nil {
		t.Fatalf("first contact should be accepted, got %v", err)
	}

	hostKeys, err := service.List()

	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(hostKeys) != 1 || hostKeys[0].Host != "host-a" {
		t.Fatalf("expected one pinned key for host-a, got %+v", hostKeys)
	}

	if hostKeys[0].Fingerprint != ssh.FingerprintSHA256(key) {
		t.Error("pinned fingerprint does not match presented key")
	}

	records, err := auditRepository.QueryByHost("host-a", time.Now().Add(-time.Minute), time.Now().Add(time.Minute))

	if err != nil {
		t.Fatalf("audit query failed: %v", err)
	}

	if len(records) != 1 || records[0].Outcome != audit.OutcomeTrustEstablished {
		t.Errorf("expected one trust-established audit record, got %+v", records)
	}
}

func TestRepeatContactWithSameKeyIsAccepted(t *testing.T) {
	service, _ := newTestService(t)
	key := newPublicKey(t)

	if err := service.Verify("host-a", key); err != nil {
		t.Fatalf("first contact failed: %v", err)
	}

	if err := service.Verify("host-a", key); err != nil {
		t.Errorf("repeat contact with the pinned key should be accepted, got %v", err)
	}
}

func TestMismatchIsFatalUntilForgotten(t *testing.T) {
	service, _ := newTestService(t)
	firstKey := newPublicKey(t)
	secondKey := newPublicKey(t)

	if err := service.Verify("host-a", firstKey); err != nil {
		t.Fatalf("first contact failed: %v", err)
	}

	err := service.Verify("host-a", secondKey)

	if !errors.Is(err, ErrHostKeyMismatch) {
		t.Fatalf("expected ErrHostKeyMismatch, got %v", err)
	}

	// The mismatch is never re-accepted on its own
	err = service.Verify("host-a", secondKey)

	if !errors.Is(err, ErrHostKeyMismatch) {
		t.Fatalf("expected ErrHostKeyMismatch on repeat, got %v", err)
	}

	forgotten, err := service.Forget("host-a", "operator")

	if err != nil || !forgotten {
		t.Fatalf("forget failed: forgotten=%v err=%v", forgotten, err)
	}

	// After an explicit forget, the next contact re-pins
	if err := service.Verify("host-a", secondKey); err != nil {
		t.Errorf("contact after forget should re-pin, got %v", err)
	}
}

func TestForgetUnknownHostReturnsNotFound(t *testing.T) {
	service, _ := newTestService(t)

	forgotten, err := service.Forget("host-z", "operator")

	if err != nil {
		t.Fatalf("forget raised: %v", err)
	}

	if forgotten {
		t.Error("expected not-found for unknown host")
	}
}
