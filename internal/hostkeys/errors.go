package hostkeys

import "errors"

var (
	// ErrHostKeyMismatch means a known host presented a fingerprint that
	// differs from the pinned one. Never retried; re-trust requires an
	// explicit Forget first.
	ErrHostKeyMismatch = errors.New("host key mismatch")
)
