package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append persists a record. The record is assigned an ID here and is never
// touched again.
func (r *Repository) Append(record *AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	return r.db.Create(record).Error
}

// QueryByHost returns records for one host within [from, to], oldest first.
func (r *Repository) QueryByHost(host string, from, to time.Time) ([]*AuditRecord, error) {
	var records []*AuditRecord

	err := r.db.
		Where("host = ? AND started_at >= ? AND started_at <= ?", host, from, to).
		Order("started_at ASC").
		Find(&records).Error

	if err != nil {
		return nil, err
	}

	return records, nil
}

// Query returns records across all hosts within [from, to], oldest first.
func (r *Repository) Query(from, to time.Time) ([]*AuditRecord, error) {
	var records []*AuditRecord

	err := r.db.
		Where("started_at >= ? AND started_at <= ?", from, to).
		Order("started_at ASC").
		Find(&records).Error

	if err != nil {
		return nil, err
	}

	return records, nil
}
