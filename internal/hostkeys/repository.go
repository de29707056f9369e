package hostkeys

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(host string) (*HostKey, error) {
	hostKey := &HostKey{}

	err := r.db.First(hostKey, "host = ?", host).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return hostKey, nil
}

func (r *Repository) Save(host string, fingerprint string) (*HostKey, error) {
	hostKey := &HostKey{
		Host:        host,
		Fingerprint: fingerprint,
		AcceptedAt:  time.Now(),
	}

	err := r.db.Save(hostKey).Error

	if err != nil {
		return nil, err
	}

	return hostKey, nil
}

func (r *Repository) Delete(host string) (bool, error) {
	result := r.db.Delete(&HostKey{}, "host = ?", host)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *Repository) GetAll() ([]*HostKey, error) {
	var hostKeys []*HostKey

	err := r.db.Order("host ASC").Find(&hostKeys).Error

	if err != nil {
		return nil, err
	}

	return hostKeys, nil
}
