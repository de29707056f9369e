package sshpool

import "errors"

var (
	ErrNoCredentials      = errors.New("no private-key or login-password credential available")
	ErrFailedToCreateAuth = errors.New("failed to create auth")
	ErrFailedToDial       = errors.New("failed to dial host")
	ErrPoolClosed         = errors.New("connection pool is shut down")
	ErrCheckoutTimeout    = errors.New("timed out waiting for a free connection slot")
	ErrConnClosed         = errors.New("connection is closed")
)
