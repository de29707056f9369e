package sshpool

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/melbahja/goph"
	"golang.org/x/crypto/ssh"
)

// Conn is one authenticated session to a target host. Implementations must be
// safe to discard at any point; the pool never shares a Conn between leases.
type Conn interface {
	// Run executes a command, optionally writing stdin to it first. A
	// non-nil error means a channel fault; a remote non-zero exit comes
	// back as exitCode with a nil error.
	Run(ctx context.Context, command string, stdin string) (stdout string, stderr string, exitCode int, err error)

	// Healthy probes whether the transport is still usable.
	Healthy() bool

	Close() error
}

// sshConn wraps a goph client. Each Run opens its own session on the shared
// transport.
type sshConn struct {
	client *goph.Client

	mu     sync.Mutex
	broken bool
	closed bool
}

func newSSHConn(client *goph.Client) *sshConn {
	return &sshConn{client: client}
}

func (c *sshConn) Run(ctx context.Context, command string, stdin string) (string, string, int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", "", -1, ErrConnClosed
	}
	c.mu.Unlock()

	cmd, err := c.client.Command(command)

	if err != nil {
		c.markBroken()
		return "", "", -1, err
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	if err := cmd.Start(); err != nil {
		c.markBroken()
		return "", "", -1, err
	}

	done := make(chan error, 1)

	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		// Abort the in-flight command. The session is torn down and the
		// connection is no longer trusted for reuse.
		_ = cmd.Session.Close()
		<-done
		c.markBroken()
		return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), -1, ctx.Err()
	case err := <-done:
		exitCode := 0

		if err != nil {
			var exitErr *ssh.ExitError

			if errors.As(err, &exitErr) {
				// The remote process ran and exited non-zero: a
				// successful channel operation.
				exitCode = exitErr.ExitStatus()
				err = nil
			} else {
				c.markBroken()
				exitCode = -1
			}
		}

		return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), exitCode, err
	}
}

func (c *sshConn) markBroken() {
	c.mu.Lock()
	c.broken = true
	c.mu.Unlock()
}

func (c *sshConn) Healthy() bool {
	c.mu.Lock()
	if c.broken || c.closed {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	session, err := c.client.NewSession()

	if err != nil {
		c.markBroken()
		return false
	}

	_ = session.Close()
	return true
}

func (c *sshConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.client.Close()
}
