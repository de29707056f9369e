package credentials

import "errors"

var (
	ErrInvalidCredentialType = errors.New("invalid credential type")
	ErrEmptySecret           = errors.New("credential secret cannot be empty")
)
