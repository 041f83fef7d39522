package sftpclient

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/memfs"
	"golang.org/x/crypto/ssh"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func bufferLogger() (*log.Logger, *bytes.Buffer) {
	logBuffer := &bytes.Buffer{}
	logger := log.New(logBuffer)
	logger.SetLevel(log.DebugLevel)
	return logger, logBuffer
}

// fakeTransport scripts each session step and counts calls.
type fakeTransport struct {
	connectErr error
	authErr    error
	openErr    error
	closeErr   error
	files      *fakeFiles

	connectCalls int
	authCalls    int
	openCalls    int
	closeCalls   int
	events       *[]string
}

func (transport *fakeTransport) record(event string) {
	if transport.events != nil {
		*transport.events = append(*transport.events, event)
	}
}

func (transport *fakeTransport) Connect(string, ssh.HostKeyCallback) error {
	transport.connectCalls++
	return transport.connectErr
}

func (transport *fakeTransport) Authenticate(string, KeyPair) error {
	transport.authCalls++
	return transport.authErr
}

func (transport *fakeTransport) OpenFiles() (FileOps, error) {
	transport.openCalls++
	if transport.openErr != nil {
		return nil, transport.openErr
	}
	if transport.files == nil {
		transport.files = &fakeFiles{}
	}
	transport.files.events = transport.events
	return transport.files, nil
}

func (transport *fakeTransport) Close() error {
	transport.closeCalls++
	transport.record("close transport")
	return transport.closeErr
}

// fakeFiles serves a fixed listing and per-path contents or errors.
type fakeFiles struct {
	entries  []RemoteEntry
	listErr  error
	contents map[string]string
	getErrs  map[string]error
	putErr   error
	closeErr error
	// beforeGet runs before each Get is answered.
	beforeGet func(remotePath string)

	gets       []string
	puts       map[string]string
	putOptions []PutOptions
	closeCalls int
	events     *[]string
}

func (files *fakeFiles) List(string) ([]RemoteEntry, error) {
	return files.entries, files.listErr
}

func (files *fakeFiles) Get(remotePath string, dst io.Writer) (int64, error) {
	files.gets = append(files.gets, remotePath)
	if files.beforeGet != nil {
		files.beforeGet(remotePath)
	}
	if err := files.getErrs[remotePath]; err != nil {
		// Leave a partial write behind, as an interrupted transfer would.
		_, _ = io.WriteString(dst, "partial")
		return 7, err
	}
	written, err := io.WriteString(dst, files.contents[remotePath])
	return int64(written), err
}

func (files *fakeFiles) Put(src io.Reader, remotePath string, opts PutOptions) (int64, error) {
	files.putOptions = append(files.putOptions, opts)
	if files.putErr != nil {
		return 0, files.putErr
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return 0, err
	}
	if files.puts == nil {
		files.puts = map[string]string{}
	}
	files.puts[remotePath] = string(content)
	return int64(len(content)), nil
}

func (files *fakeFiles) Close() error {
	files.closeCalls++
	if files.events != nil {
		*files.events = append(*files.events, "close files")
	}
	return files.closeErr
}

func newFakeClient(t *testing.T, transport *fakeTransport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithTransport(func() Transport { return transport }),
		WithLogger(discardLogger()),
		WithLocalFS(memfs.New()),
	}, opts...)
	return New(Target{Host: "fake.example.test", Port: 22, Username: "batch"}, Fingerprint("aa:bb"), KeyPair{}, opts...)
}

var errFake = errors.New("FAKE EXCEPTION")
