// Package sftpclient is a small SFTP client for scripted batch transfers.
//
// Every operation opens its own SSH session, verifies the host key,
// authenticates with a key pair, runs, and disconnects. Nothing is pooled.
package sftpclient

import (
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
)

const (
	// DefaultPort is the standard SSH port.
	DefaultPort = 22
	// DefaultDialTimeout bounds the TCP connect of the default transport.
	DefaultDialTimeout = 10 * time.Second

	insecureHostWarning = "HOST VERIFICATION IS OFF - TURN ON IN LIVE!"
)

// Target is the remote endpoint and login of a Client.
type Target struct {
	Host     string
	Port     int
	Username string
}

// Addr returns host:port, using DefaultPort when Port is unset.
func (target Target) Addr() string {
	port := target.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(target.Host, strconv.Itoa(port))
}

// Client runs transfers against a single remote host.
type Client struct {
	target  Target
	trust   HostTrust
	keyPair KeyPair

	logger            *log.Logger
	localFS           billy.Filesystem
	newTransport      TransportFactory
	dial              DialFunc
	dialTimeout       time.Duration
	keepAliveInterval time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for warnings and transfer progress.
func WithLogger(logger *log.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// WithLocalFS sets the filesystem used for upload sources and download
// targets. The default is the native filesystem.
func WithLocalFS(filesystem billy.Filesystem) Option {
	return func(client *Client) {
		if filesystem != nil {
			client.localFS = filesystem
		}
	}
}

// WithTransport replaces the SSH transport, mainly for tests.
func WithTransport(factory TransportFactory) Option {
	return func(client *Client) {
		client.newTransport = factory
	}
}

// WithDialer replaces the TCP dialer of the default SSH transport.
func WithDialer(dial DialFunc) Option {
	return func(client *Client) {
		client.dial = dial
	}
}

// WithDialTimeout bounds the TCP connect of the default SSH transport.
func WithDialTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.dialTimeout = timeout
	}
}

// WithKeepAlive makes the SSH transport send keep-alive requests at the
// given interval while a session is open. Zero disables them.
func WithKeepAlive(interval time.Duration) Option {
	return func(client *Client) {
		client.keepAliveInterval = interval
	}
}

// New returns a Client for target. trust and keyPair are used for every
// session the client opens.
func New(target Target, trust HostTrust, keyPair KeyPair, opts ...Option) *Client {
	client := &Client{
		target:      target,
		trust:       trust,
		keyPair:     keyPair,
		logger:      log.New(os.Stderr),
		localFS:     NativeFS(),
		dialTimeout: DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.newTransport == nil {
		client.newTransport = client.defaultTransport
	}
	return client
}

// Target returns the endpoint the client connects to.
func (client *Client) Target() Target {
	return client.target
}

func (client *Client) defaultTransport() Transport {
	dial := client.dial
	if dial == nil {
		dialer := &net.Dialer{Timeout: client.dialTimeout}
		dial = dialer.Dial
	}
	return newSSHTransport(dial, client.keepAliveInterval)
}

// WithSession opens a verified, authenticated session, hands its file
// operations to body, and tears the session down again. The handle is closed
// before the connection on every path. body's error is returned unchanged;
// setup failures are returned as *SessionError. Errors from closing are
// logged and never override the returned error.
func (client *Client) WithSession(body func(FileOps) error) error {
	addr := client.target.Addr()

	transport := client.newTransport()
	defer client.closeLogged(transport, "connection", addr)

	if client.trust.Insecure() {
		client.logger.Warn(insecureHostWarning, "host", addr)
	}

	if err := transport.Connect(addr, client.trust.hostKeyCallback()); err != nil {
		return &SessionError{Stage: StageConnect, Addr: addr, Err: err}
	}
	if err := transport.Authenticate(client.target.Username, client.keyPair); err != nil {
		stage := StageAuthenticate
		var hostKeyErr *HostKeyError
		if errors.As(err, &hostKeyErr) {
			stage = StageConnect
		}
		return &SessionError{Stage: stage, Addr: addr, Err: err}
	}
	client.logger.Debug("connected", "host", addr, "user", client.target.Username)

	files, err := transport.OpenFiles()
	if err != nil {
		return &SessionError{Stage: StageOpenFiles, Addr: addr, Err: err}
	}
	defer client.closeLogged(files, "sftp handle", addr)

	return body(files)
}

func (client *Client) closeLogged(closer io.Closer, what, addr string) {
	if err := closer.Close(); err != nil {
		client.logger.Error("close failed", "resource", what, "host", addr, "err", err)
	}
}
