package audit

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})

	if err != nil {
		t.Fatalf("open in-memory db failed: %v", err)
	}

	if err := db.AutoMigrate(&AuditRecord{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	return NewRepository(db)
}

func TestAppendAssignsID(t *testing.T) {
	repository := newTestRepository(t)

	record := &AuditRecord{
		Host:       "host-a",
		Command:    "uptime",
		Actor:      "tester",
		Outcome:    OutcomeSucceeded,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}

	if err := repository.Append(record); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if record.ID == "" {
		t.Error("expected record ID to be assigned")
	}
}

func TestQueryByHostAndTimeRange(t *testing.T) {
	repository := newTestRepository(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []struct {
		host    string
		started time.Time
		outcome Outcome
	}{
		{"host-a", base, OutcomeSucceeded},
		{"host-a", base.Add(1 * time.Hour), OutcomeFailed},
		{"host-a", base.Add(48 * time.Hour), OutcomeSucceeded},
		{"host-b", base.Add(30 * time.Minute), OutcomeTimedOut},
	}

	for _, fixture := range fixtures {
		err := repository.Append(&AuditRecord{
			Host:       fixture.host,
			Outcome:    fixture.outcome,
			StartedAt:  fixture.started,
			FinishedAt: fixture.started.Add(time.Second),
		})

		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	records, err := repository.QueryByHost("host-a", base, base.Add(2*time.Hour))

	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records in range for host-a, got %d", len(records))
	}

	if !records[0].StartedAt.Before(records[1].StartedAt) {
		t.Error("expected records ordered oldest first")
	}

	all, err := repository.Query(base, base.Add(2*time.Hour))

	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(all) != 3 {
		t.Errorf("expected 3 records across hosts in range, got %d", len(all))
	}
}
