package sshpool

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"hostpilot/internal/credentials"
	"hostpilot/internal/hostkeys"

	"github.com/melbahja/goph"
	"golang.org/x/crypto/ssh"
)

// Dialer opens a new authenticated connection to a host.
type Dialer interface {
	Dial(ctx context.Context, host string) (Conn, error)
}

// SSHDialer authenticates with credentials from the store (private key first,
// login password second) and verifies host identity through the TOFU registry
// inside the SSH handshake.
type SSHDialer struct {
	Credentials *credentials.Service
	Trust       *hostkeys.Service

	User        string
	DefaultPort uint
}

func NewSSHDialer(credentialsService *credentials.Service, trustService *hostkeys.Service, user string, defaultPort uint) *SSHDialer {
	return &SSHDialer{
		Credentials: credentialsService,
		Trust:       trustService,
		User:        user,
		DefaultPort: defaultPort,
	}
}

func (d *SSHDialer) authMethods(host string) ([]ssh.AuthMethod, error) {
	var authMethods []ssh.AuthMethod

	// Private-key credential takes precedence over login password
	keyData, found, err := d.Credentials.Resolve(credentials.CredentialTypePrivateKey, host)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
	}

	if found {
		signer, err := ssh.ParsePrivateKey(keyData)

		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
		return authMethods, nil
	}

	password, found, err := d.Credentials.Resolve(credentials.CredentialTypeLoginPassword, host)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
	}

	if found {
		authMethods = append(authMethods, ssh.Password(string(password)))
		return authMethods, nil
	}

	return nil, ErrNoCredentials
}

func (d *SSHDialer) hostPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}

	return net.JoinHostPort(host, strconv.FormatUint(uint64(d.DefaultPort), 10))
}

func (d *SSHDialer) Dial(ctx context.Context, host string) (Conn, error) {
	authMethods, err := d.authMethods(host)

	if err != nil {
		return nil, err
	}

	sshConfig := &ssh.ClientConfig{
		User: d.User,
		Auth: authMethods,
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			return d.Trust.Verify(host, key)
		},
	}

	hostPort := d.hostPort(host)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", hostPort)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToDial, err)
	}

	// The handshake has to finish within the connect deadline too
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, hostPort, sshConfig)

	if err != nil {
		conn.Close()
		return nil, err
	}

	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(sshConn, chans, reqs)

	return newSSHConn(&goph.Client{Client: client}), nil
}
