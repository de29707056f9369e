package credentials

import (
	"errors"
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

// Upsert stores a credential, replacing any existing entry of the same
// (type, host) pair so at most one credential exists per pair.
func (r *Repository) Upsert(credentialType CredentialType, host string, ciphertext string) (*Credential, error) {
	var credential Credential

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&credential, "type = ? AND host = ?", credentialType, host).Error

		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			credential = Credential{
				ID:        uuid.New().String(),
				Type:      credentialType,
				Host:      host,
				CreatedAt: time.Now(),
			}
		}

		credential.Ciphertext = ciphertext
		credential.UpdatedAt = time.Now()

		return tx.Save(&credential).Error
	})

	if err != nil {
		return nil, err
	}

	return &credential, nil
}

func (r *Repository) Get(credentialType CredentialType, host string) (*Credential, error) {
	credential := &Credential{}

	err := r.db.First(credential, "type = ? AND host = ?", credentialType, host).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return credential, nil
}

// Delete removes a credential and reports whether anything was removed.
func (r *Repository) Delete(credentialType CredentialType, host string) (bool, error) {
	result := r.db.Delete(&Credential{}, "type = ? AND host = ?", credentialType, host)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
