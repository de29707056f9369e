package executor

import "errors"

var (
	ErrTemplateRender = errors.New("failed to render command template")
	ErrEmptyCommand   = errors.New("command template rendered to an empty command")
)

// ErrorKind classifies why an execution failed. Kinds map one-to-one onto the
// retry policy: connection and timeout are transient and retried, everything
// else is fatal for the item.
type ErrorKind string

const (
	ErrorKindConfiguration   ErrorKind = "configuration"
	ErrorKindAuthentication  ErrorKind = "authentication"
	ErrorKindHostKeyMismatch ErrorKind = "host-key-mismatch"
	ErrorKindConnection      ErrorKind = "connection"
	ErrorKindTimeout         ErrorKind = "timeout"
	ErrorKindCommand         ErrorKind = "command"
)

// Retryable reports whether the kind is a transient channel fault.
func (k ErrorKind) Retryable() bool {
	return k == ErrorKindConnection || k == ErrorKindTimeout
}
