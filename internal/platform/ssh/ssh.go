// Package ssh provides an SSH runner for executing commands on remote hosts.
// It handles connection establishment with retry logic, key-based
// authentication, and reports the remote exit status instead of failing on it.
//
// Security: Host key verification is disabled by default since instances are
// freshly created and their keys are unknown. Configure HostKeyCallback when
// connecting to long-lived hosts.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/magnet/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 2
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config holds SSH runner configuration.
type Config struct {
	User       string
	Port       int
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection and
	// the SSH handshake. If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// MaxRetries is the number of additional dial attempts.
	// If zero, defaultMaxRetries is used; use a negative value to disable.
	MaxRetries int

	// RetryDelay is the initial delay between dial attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// ExecResult is the outcome of a command that ran to completion on the
// remote host. Output holds stdout and stderr combined.
type ExecResult struct {
	ExitStatus int
	Output     string
}

// RemoteExecError reports that a command could not be run at all: the
// connection, authentication or session failed.
type RemoteExecError struct {
	Host string
	Op   string
	Err  error
}

func (e *RemoteExecError) Error() string {
	return fmt.Sprintf("ssh %s on %s: %v", e.Op, e.Host, e.Err)
}

func (e *RemoteExecError) Unwrap() error {
	return e.Err
}

// Runner executes commands on remote hosts via SSH.
// It parses the private key once during construction and
// opens one connection per Run call.
type Runner struct {
	config *Config
	signer ssh.Signer
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewRunner creates a new SSH runner and validates the private key.
func NewRunner(cfg *Config) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.MaxRetries < 0 {
		configCopy.MaxRetries = 0
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // instances are brand new
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	dialer := &net.Dialer{Timeout: configCopy.DialTimeout}
	return &Runner{
		config: &configCopy,
		signer: signer,
		dial:   dialer.DialContext,
	}, nil
}

// Run executes command on host. A command that ran but exited non-zero is
// not an error: its status is reported in ExecResult. Failures to connect,
// authenticate or open a session are returned as *RemoteExecError.
func (r *Runner) Run(ctx context.Context, host, command string) (ExecResult, error) {
	client, err := r.connect(ctx, host)
	if err != nil {
		return ExecResult{}, err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return ExecResult{}, &RemoteExecError{Host: host, Op: "session", Err: err}
	}
	defer func() { _ = session.Close() }()

	// Closing the connection unblocks CombinedOutput on cancellation.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	output, err := session.CombinedOutput(command)
	if err == nil {
		return ExecResult{Output: string(output)}, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return ExecResult{ExitStatus: exitErr.ExitStatus(), Output: string(output)}, nil
	}
	if ctx.Err() != nil {
		return ExecResult{}, &RemoteExecError{Host: host, Op: "exec", Err: ctx.Err()}
	}
	return ExecResult{Output: string(output)}, &RemoteExecError{Host: host, Op: "exec", Err: err}
}

// connect establishes the SSH connection with retry logic.
func (r *Runner) connect(ctx context.Context, host string) (*ssh.Client, error) {
	clientConfig := &ssh.ClientConfig{
		User: r.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(r.signer),
		},
		HostKeyCallback: r.config.HostKeyCallback,
		Timeout:         r.config.DialTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(r.config.Port))
	var client *ssh.Client

	err := retry.WithExponentialBackoff(ctx, func() error {
		conn, err := r.dial(ctx, "tcp", addr)
		if err != nil {
			return err
		}

		_ = conn.SetDeadline(time.Now().Add(r.config.DialTimeout))
		c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
		if err != nil {
			_ = conn.Close()
			if isAuthError(err) {
				return retry.Fatal(err)
			}
			return err
		}
		_ = conn.SetDeadline(time.Time{})

		client = ssh.NewClient(c, chans, reqs)
		return nil
	},
		retry.WithMaxRetries(r.config.MaxRetries),
		retry.WithInitialDelay(r.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, &RemoteExecError{Host: host, Op: "connect", Err: err}
	}

	return client, nil
}

// isAuthError reports whether the handshake failed because every offered
// key was rejected; retrying cannot fix that.
func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}
