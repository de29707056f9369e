package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Service seals and opens credential secrets with AES-256-GCM, keyed from the
// operator-supplied master key.
type Service struct {
	key []byte
}

func NewService(masterKey string) (*Service, error) {
	if masterKey == "" {
		return nil, ErrNoMasterKey
	}

	key := sha256.Sum256([]byte(masterKey))

	return &Service{key: key[:]}, nil
}

func (s *Service) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)

	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)

	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return gcm, nil
}

// Seal encrypts plainText and returns base64(nonce || ciphertext).
func (s *Service) Seal(plainText []byte) (string, error) {
	gcm, err := s.newGCM()

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())

	// Random nonce
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}

	cipherText := gcm.Seal(nonce, nonce, plainText, nil)

	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// Open decodes and decrypts a value produced by Seal. A tampered or truncated
// value fails GCM authentication and returns ErrDecryptFailed.
func (s *Service) Open(encoded string) ([]byte, error) {
	cipherText, err := base64.StdEncoding.DecodeString(encoded)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeCiphertext, err)
	}

	gcm, err := s.newGCM()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	if len(cipherText) < gcm.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce := cipherText[:gcm.NonceSize()]
	cipherText = cipherText[gcm.NonceSize():]

	plainText, err := gcm.Open(nil, nonce, cipherText, nil)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return plainText, nil
}
