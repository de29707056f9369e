package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hostpilot/internal/audit"
	"hostpilot/internal/credentials"
	"hostpilot/internal/encryption"
	"hostpilot/internal/hostkeys"
	"hostpilot/internal/logger"
	"hostpilot/internal/sshpool"

	"github.com/google/uuid"
)

type Options struct {
	ConnectTimeout  time.Duration
	ExecuteTimeout  time.Duration
	CheckoutTimeout time.Duration

	MaxRetries  int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// Service drives remote command executions: it resolves credentials, leases
// pooled connections, enforces timeouts, retries transient channel faults and
// writes exactly one audit record per execution.
type Service struct {
	pool        *sshpool.Pool
	credentials *credentials.Service
	auditLog    *audit.Repository
	options     Options
}

func NewService(pool *sshpool.Pool, credentialsService *credentials.Service, auditLog *audit.Repository, options Options) *Service {
	return &Service{
		pool:        pool,
		credentials: credentialsService,
		auditLog:    auditLog,
		options:     options,
	}
}

// Execute runs one request to a terminal state. Failures are reported through
// the Result, never as a Go error: a batch caller treats every item alike.
func (s *Service) Execute(ctx context.Context, req *Request) *Result {
	started := time.Now()

	result := &Result{
		ExecutionID: uuid.New().String(),
		Host:        req.Host,
		State:       StatePending,
		ExitCode:    -1,
	}

	defer func() {
		result.Duration = time.Since(started)
		s.writeAudit(req, result, started)
	}()

	command, err := req.RenderCommand()

	if err != nil {
		s.fail(result, StateFailed, ErrorKindConfiguration, err)
		return result
	}

	result.Command = command

	command, stdin, err := s.applyEscalation(req, command)

	if err != nil {
		s.fail(result, StateFailed, classify(err), err)
		return result
	}

	// The audited command line is the escalated form; the secret only ever
	// travels on stdin and never appears in it.
	result.Command = command

	connectTimeout := s.options.ConnectTimeout
	if req.ConnectTimeout > 0 {
		connectTimeout = req.ConnectTimeout
	}

	executeTimeout := s.options.ExecuteTimeout
	if req.ExecuteTimeout > 0 {
		executeTimeout = req.ExecuteTimeout
	}

	maxRetries := s.options.MaxRetries
	if req.MaxRetries > 0 {
		maxRetries = req.MaxRetries
	}

	for attempt := 0; ; attempt++ {
		kind, retryable := s.attempt(ctx, req.Host, command, stdin, connectTimeout, executeTimeout, result)

		if kind == "" {
			return result
		}

		if !retryable || attempt >= maxRetries || ctx.Err() != nil {
			return result
		}

		backoff := s.backoffFor(attempt)
		logger.Debug("Retrying %s on %s after %s (attempt %d, %s)", result.ExecutionID, req.Host, backoff, attempt+1, kind)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return result
		}
	}
}

// attempt performs one connect-and-run cycle. It returns the error kind (""
// on success) and whether the fault class is retryable.
func (s *Service) attempt(ctx context.Context, host, command, stdin string, connectTimeout, executeTimeout time.Duration, result *Result) (ErrorKind, bool) {
	result.State = StateConnecting

	checkoutCtx, cancelCheckout := context.WithTimeout(ctx, connectTimeout+s.options.CheckoutTimeout)
	lease, err := s.pool.Checkout(checkoutCtx, host)
	cancelCheckout()

	if err != nil {
		kind := classify(err)
		state := StateFailed
		if kind == ErrorKindTimeout {
			state = StateTimedOut
		}
		s.fail(result, state, kind, err)
		return kind, kind.Retryable()
	}

	result.State = StateRunning

	execCtx, cancelExec := context.WithTimeout(ctx, executeTimeout)
	stdout, stderr, exitCode, err := lease.Conn().Run(execCtx, command, stdin)
	cancelExec()

	result.Stdout = stdout
	result.Stderr = stderr
	result.ExitCode = exitCode

	if err == nil {
		lease.Release()

		if exitCode == 0 {
			result.State = StateSucceeded
			result.Succeeded = true
			result.ErrorKind = ""
			result.Message = ""
			return "", false
		}

		// The channel worked; the remote process failed. Never retried.
		s.fail(result, StateFailed, ErrorKindCommand, fmt.Errorf("remote command exited with code %d", exitCode))
		return ErrorKindCommand, false
	}

	// Channel fault: the transport is no longer trustworthy. Pool
	// accounting is settled before we return.
	lease.Discard()

	kind := classify(err)
	state := StateFailed
	if kind == ErrorKindTimeout {
		state = StateTimedOut
	}
	s.fail(result, state, kind, err)

	return kind, kind.Retryable()
}

// ExecuteBatch runs each request against one host independently: an item's
// failure never aborts the remaining items. One Result per item, in order.
func (s *Service) ExecuteBatch(ctx context.Context, host string, reqs []*Request) []*Result {
	results := make([]*Result, 0, len(reqs))

	for _, req := range reqs {
		req.Host = host
		results = append(results, s.Execute(ctx, req))
	}

	return results
}

func (s *Service) applyEscalation(req *Request, command string) (string, string, error) {
	if !req.Escalate {
		return command, "", nil
	}

	secret, found, err := s.credentials.Resolve(credentials.CredentialTypeSudoPassword, req.Host)

	if err != nil {
		return "", "", err
	}

	if !found {
		// No sudo credential configured: send the command unmodified and
		// rely on passwordless escalation on the target.
		return command, "", nil
	}

	escalated := "sudo -S -p '' -- sh -c " + QuoteShell(command)

	return escalated, string(secret) + "\n", nil
}

func (s *Service) fail(result *Result, state State, kind ErrorKind, err error) {
	result.State = state
	result.Succeeded = false
	result.ErrorKind = kind
	result.Message = err.Error()
}

// backoffFor grows linearly with the attempt number and never decreases.
func (s *Service) backoffFor(attempt int) time.Duration {
	backoff := s.options.BackoffBase * time.Duration(attempt+1)

	if s.options.BackoffCap > 0 && backoff > s.options.BackoffCap {
		backoff = s.options.BackoffCap
	}

	return backoff
}

func (s *Service) writeAudit(req *Request, result *Result, started time.Time) {
	record := &audit.AuditRecord{
		ExecutionID: result.ExecutionID,
		Host:        req.Host,
		Command:     result.Command,
		Actor:       req.Actor,
		Outcome:     outcomeFor(result),
		ErrorKind:   string(result.ErrorKind),
		ExitCode:    result.ExitCode,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}

	if err := s.auditLog.Append(record); err != nil {
		logger.Error("Failed to append audit record for execution %s: %v", result.ExecutionID, err)
	}
}

func outcomeFor(result *Result) audit.Outcome {
	switch {
	case result.Succeeded:
		return audit.OutcomeSucceeded
	case result.State == StateTimedOut:
		return audit.OutcomeTimedOut
	case result.ErrorKind == ErrorKindHostKeyMismatch:
		return audit.OutcomeRejected
	default:
		return audit.OutcomeFailed
	}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, hostkeys.ErrHostKeyMismatch):
		return ErrorKindHostKeyMismatch
	case errors.Is(err, sshpool.ErrNoCredentials), errors.Is(err, sshpool.ErrFailedToCreateAuth):
		return ErrorKindAuthentication
	case errors.Is(err, encryption.ErrNoMasterKey), errors.Is(err, encryption.ErrDecryptFailed), errors.Is(err, encryption.ErrDecodeCiphertext):
		return ErrorKindConfiguration
	case errors.Is(err, ErrTemplateRender), errors.Is(err, ErrEmptyCommand):
		return ErrorKindConfiguration
	case errors.Is(err, sshpool.ErrCheckoutTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorKindTimeout
	case strings.Contains(err.Error(), "unable to authenticate"):
		// x/crypto/ssh reports rejected credentials as an opaque
		// handshake error
		return ErrorKindAuthentication
	default:
		return ErrorKindConnection
	}
}
