package encryption

import "fmt"

// Common encryption errors
var (
	ErrNoMasterKey        = fmt.Errorf("no master key configured")
	ErrCiphertextTooShort = fmt.Errorf("ciphertext too short")
	ErrDecodeCiphertext   = fmt.Errorf("failed to decode ciphertext")
	ErrDecryptFailed      = fmt.Errorf("failed to decrypt ciphertext")
	ErrEncryptFailed      = fmt.Errorf("failed to encrypt plaintext")
)
