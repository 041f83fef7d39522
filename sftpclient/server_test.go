package sftpclient

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sys/unix"
)

// testServer is an in-process SSH server exposing an in-memory SFTP tree.
// Every dial gets its own connection; all connections share one tree.
type testServer struct {
	handlers   sftp.Handlers
	hostSigner ssh.Signer

	// authorizedKey restricts public key auth when set.
	authorizedKey ssh.PublicKey

	mu          sync.Mutex
	dials       int
	dialedAddrs []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return &testServer{
		handlers:   sftp.InMemHandler(),
		hostSigner: generateSigner(t),
	}
}

func generateSigner(t *testing.T) ssh.Signer {
	t.Helper()

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(privateKey)
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	return signer
}

func (server *testServer) trust() HostTrust {
	return Fingerprint(ssh.FingerprintLegacyMD5(server.hostSigner.PublicKey()))
}

func (server *testServer) dialer(t *testing.T) DialFunc {
	return func(_, addr string) (net.Conn, error) {
		server.mu.Lock()
		server.dials++
		server.dialedAddrs = append(server.dialedAddrs, addr)
		server.mu.Unlock()

		clientConn, serverConn, closeSocketPair := newSocketPair(t)
		serverDone := make(chan struct{})
		go func() {
			defer close(serverDone)
			server.serve(serverConn)
		}()
		t.Cleanup(func() {
			closeSocketPair()
			<-serverDone
		})
		return clientConn, nil
	}
}

func (server *testServer) client(t *testing.T, keyPair KeyPair, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithDialer(server.dialer(t)), WithLogger(discardLogger())}, opts...)
	return New(Target{Host: "sftp.example.test", Port: 2222, Username: "batch"}, server.trust(), keyPair, opts...)
}

func (server *testServer) serve(conn net.Conn) {
	defer conn.Close()

	serverConfig := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if server.authorizedKey != nil && !bytes.Equal(key.Marshal(), server.authorizedKey.Marshal()) {
				return nil, errors.New("public key not authorized")
			}
			return nil, nil
		},
	}
	serverConfig.AddHostKey(server.hostSigner)

	sshConnection, channels, requests, err := ssh.NewServerConn(conn, serverConfig)
	if err != nil {
		return
	}
	defer sshConnection.Close()

	go ssh.DiscardRequests(requests)

	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, channelRequests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go server.serveSession(channel, channelRequests)
	}
}

func (server *testServer) serveSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for request := range requests {
		isSFTP := request.Type == "subsystem" && len(request.Payload) > 4 && string(request.Payload[4:]) == "sftp"
		if request.WantReply {
			_ = request.Reply(isSFTP, nil)
		}
		if !isSFTP {
			continue
		}

		go ssh.DiscardRequests(requests)
		requestServer := sftp.NewRequestServer(channel, server.handlers)
		_ = requestServer.Serve()
		_ = requestServer.Close()
		return
	}
}

// direct opens an SFTP client on the shared tree without going through SSH.
func (server *testServer) direct(t *testing.T) *sftp.Client {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	requestServer := sftp.NewRequestServer(serverSide, server.handlers)
	go func() {
		_ = requestServer.Serve()
	}()

	sftpClient, err := sftp.NewClientPipe(clientSide, clientSide)
	if err != nil {
		t.Fatalf("open direct sftp client: %v", err)
	}
	t.Cleanup(func() {
		_ = sftpClient.Close()
		_ = requestServer.Close()
	})
	return sftpClient
}

func (server *testServer) writeFile(t *testing.T, remotePath, content string) {
	t.Helper()

	remoteFile, err := server.direct(t).Create(remotePath)
	if err != nil {
		t.Fatalf("create remote %s: %v", remotePath, err)
	}
	if _, err := remoteFile.Write([]byte(content)); err != nil {
		t.Fatalf("write remote %s: %v", remotePath, err)
	}
	if err := remoteFile.Close(); err != nil {
		t.Fatalf("close remote %s: %v", remotePath, err)
	}
}

func (server *testServer) mkdir(t *testing.T, remotePath string) {
	t.Helper()

	if err := server.direct(t).Mkdir(remotePath); err != nil {
		t.Fatalf("mkdir remote %s: %v", remotePath, err)
	}
}

func (server *testServer) readFile(t *testing.T, remotePath string) string {
	t.Helper()

	remoteFile, err := server.direct(t).Open(remotePath)
	if err != nil {
		t.Fatalf("open remote %s: %v", remotePath, err)
	}
	defer remoteFile.Close()

	content, err := io.ReadAll(remoteFile)
	if err != nil {
		t.Fatalf("read remote %s: %v", remotePath, err)
	}
	return string(content)
}

func newSocketPair(t *testing.T) (net.Conn, net.Conn, func()) {
	t.Helper()

	fileDescriptors, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Skipf("unix socketpair is unavailable in this environment: %v", err)
	}

	clientFile := os.NewFile(uintptr(fileDescriptors[0]), "client-sock")
	serverFile := os.NewFile(uintptr(fileDescriptors[1]), "server-sock")

	clientConn, err := net.FileConn(clientFile)
	if err != nil {
		_ = clientFile.Close()
		_ = serverFile.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("socketpair connections are unavailable in this environment: %v", err)
		}
		t.Fatalf("create client net.Conn from socketpair: %v", err)
	}
	serverConn, err := net.FileConn(serverFile)
	if err != nil {
		_ = clientConn.Close()
		_ = clientFile.Close()
		_ = serverFile.Close()
		t.Fatalf("create server net.Conn from socketpair: %v", err)
	}

	_ = clientFile.Close()
	_ = serverFile.Close()

	cleanup := func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	}
	return clientConn, serverConn, cleanup
}
