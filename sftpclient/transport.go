package sftpclient

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// RemoteEntry is one item of a remote directory listing.
type RemoteEntry struct {
	Name    string
	Path    string
	Regular bool
	Size    int64
	ModTime time.Time
}

// PutOptions controls how a remote file is written.
type PutOptions struct {
	// PreserveAttributes copies Mode and ModTime to the remote file after
	// the write. When false the server's defaults apply.
	PreserveAttributes bool
	Mode               os.FileMode
	ModTime            time.Time
}

// FileOps is the file-operations handle available inside a session.
type FileOps interface {
	List(dir string) ([]RemoteEntry, error)
	Get(remotePath string, dst io.Writer) (int64, error)
	Put(src io.Reader, remotePath string, opts PutOptions) (int64, error)
	Close() error
}

// Transport is the secure channel a session runs over. Connect, Authenticate
// and OpenFiles are called at most once each, in that order; Close is called
// exactly once per session whether or not the earlier steps succeeded.
type Transport interface {
	Connect(addr string, hostKeyCallback ssh.HostKeyCallback) error
	Authenticate(username string, keyPair KeyPair) error
	OpenFiles() (FileOps, error)
	Close() error
}

// TransportFactory builds a fresh, unconnected Transport for each session.
type TransportFactory func() Transport

// DialFunc opens the network connection for the SSH transport.
type DialFunc func(network, addr string) (net.Conn, error)

const keepAliveRequest = "keepalive@openssh.com"

type sshTransport struct {
	dial              DialFunc
	keepAliveInterval time.Duration

	addr            string
	hostKeyCallback ssh.HostKeyCallback
	hostKeyErr      error

	conn   net.Conn
	client *ssh.Client

	stopKeepAlive chan struct{}
	closeOnce     sync.Once
	closeErr      error
}

func newSSHTransport(dial DialFunc, keepAliveInterval time.Duration) *sshTransport {
	return &sshTransport{dial: dial, keepAliveInterval: keepAliveInterval}
}

func (transport *sshTransport) Connect(addr string, hostKeyCallback ssh.HostKeyCallback) error {
	conn, err := transport.dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	transport.addr = addr
	transport.conn = conn
	transport.hostKeyCallback = hostKeyCallback
	return nil
}

// Authenticate runs the SSH handshake. Host key verification happens here
// too, so a rejected host key is returned as the *HostKeyError itself.
func (transport *sshTransport) Authenticate(username string, keyPair KeyPair) error {
	if transport.conn == nil {
		return errors.New("not connected")
	}
	if !keyPair.valid() {
		return errors.New("key pair is empty")
	}

	clientConfig := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(keyPair.signer)},
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			err := transport.hostKeyCallback(hostname, remote, key)
			transport.hostKeyErr = err
			return err
		},
	}

	sshConn, channels, requests, err := ssh.NewClientConn(transport.conn, transport.addr, clientConfig)
	if err != nil {
		// NewClientConn closes the connection on failure.
		transport.conn = nil
		if transport.hostKeyErr != nil {
			return transport.hostKeyErr
		}
		return err
	}
	transport.client = ssh.NewClient(sshConn, channels, requests)

	if transport.keepAliveInterval > 0 {
		transport.stopKeepAlive = make(chan struct{})
		go sendKeepAlives(transport.client, transport.keepAliveInterval, transport.stopKeepAlive)
	}
	return nil
}

func (transport *sshTransport) OpenFiles() (FileOps, error) {
	if transport.client == nil {
		return nil, errors.New("not authenticated")
	}
	sftpClient, err := sftp.NewClient(transport.client)
	if err != nil {
		return nil, err
	}
	return &remoteFiles{client: sftpClient}, nil
}

func (transport *sshTransport) Close() error {
	transport.closeOnce.Do(func() {
		if transport.stopKeepAlive != nil {
			close(transport.stopKeepAlive)
		}
		switch {
		case transport.client != nil:
			transport.closeErr = transport.client.Close()
		case transport.conn != nil:
			transport.closeErr = transport.conn.Close()
		}
	})
	return transport.closeErr
}

func sendKeepAlives(client *ssh.Client, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, _, err := client.SendRequest(keepAliveRequest, true, nil); err != nil {
				return
			}
		}
	}
}

// remoteFiles adapts a pkg/sftp client to FileOps.
type remoteFiles struct {
	client *sftp.Client
}

func (files *remoteFiles) List(dir string) ([]RemoteEntry, error) {
	fileInfos, err := files.client.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]RemoteEntry, 0, len(fileInfos))
	for _, fileInfo := range fileInfos {
		entries = append(entries, RemoteEntry{
			Name:    fileInfo.Name(),
			Path:    path.Join(dir, fileInfo.Name()),
			Regular: fileInfo.Mode().IsRegular(),
			Size:    fileInfo.Size(),
			ModTime: fileInfo.ModTime(),
		})
	}
	return entries, nil
}

func (files *remoteFiles) Get(remotePath string, dst io.Writer) (int64, error) {
	remoteFile, err := files.client.Open(remotePath)
	if err != nil {
		return 0, err
	}
	defer remoteFile.Close()

	return remoteFile.WriteTo(dst)
}

func (files *remoteFiles) Put(src io.Reader, remotePath string, opts PutOptions) (int64, error) {
	remoteFile, err := files.client.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return 0, err
	}

	written, err := remoteFile.ReadFrom(src)
	if closeErr := remoteFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, err
	}

	if opts.PreserveAttributes {
		if err := files.client.Chmod(remotePath, opts.Mode.Perm()); err != nil {
			return written, fmt.Errorf("set mode: %w", err)
		}
		if !opts.ModTime.IsZero() {
			if err := files.client.Chtimes(remotePath, opts.ModTime, opts.ModTime); err != nil {
				return written, fmt.Errorf("set times: %w", err)
			}
		}
	}
	return written, nil
}

func (files *remoteFiles) Close() error {
	return files.client.Close()
}
