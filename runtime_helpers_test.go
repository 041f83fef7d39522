package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"simples-sftp/sftpclient"
)

func captureWriters(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	originalOutput := standardOutput
	originalError := standardError

	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	standardOutput = outputBuffer
	standardError = errorBuffer

	t.Cleanup(func() {
		standardOutput = originalOutput
		standardError = originalError
	})

	return outputBuffer, errorBuffer
}

// recordingClient stands in for *sftpclient.Client.
type recordingClient struct {
	target      sftpclient.Target
	trust       sftpclient.HostTrust
	uploads     [][2]string
	downloads   [][2]string
	filter      sftpclient.Filter
	uploadErr   error
	downloadErr error
	downloaded  []string
}

func (client *recordingClient) Upload(localFile, remotePath string) error {
	client.uploads = append(client.uploads, [2]string{localFile, remotePath})
	return client.uploadErr
}

func (client *recordingClient) Download(remoteDir, localDir string, filter sftpclient.Filter) ([]string, error) {
	client.downloads = append(client.downloads, [2]string{remoteDir, localDir})
	client.filter = filter
	return client.downloaded, client.downloadErr
}

func stubTransferClient(t *testing.T, client *recordingClient) {
	t.Helper()

	original := newTransferClient
	newTransferClient = func(target sftpclient.Target, trust sftpclient.HostTrust, _ sftpclient.KeyPair, _ ...sftpclient.Option) transferClient {
		client.target = target
		client.trust = trust
		return client
	}
	t.Cleanup(func() { newTransferClient = original })
}

func stubPassphrasePrompt(t *testing.T, terminal bool, passphrase string, err error) *int {
	t.Helper()

	originalIsTerminal := isTerminalForPassphrasePrompt
	originalRead := readPassphraseForPrompt
	calls := 0
	isTerminalForPassphrasePrompt = func() bool { return terminal }
	readPassphraseForPrompt = func() ([]byte, error) {
		calls++
		return []byte(passphrase), err
	}
	t.Cleanup(func() {
		isTerminalForPassphrasePrompt = originalIsTerminal
		readPassphraseForPrompt = originalRead
	})
	return &calls
}

func writeClientKey(t *testing.T, dir, passphrase string) string {
	t.Helper()

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(privateKey, "")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(privateKey, "", []byte(passphrase))
	}
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	sshPublicKey, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		t.Fatalf("convert public key: %v", err)
	}

	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(keyPath+".pub", ssh.MarshalAuthorizedKey(sshPublicKey), 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	return keyPath
}

func writeEnvFile(t *testing.T, dir string, lines ...string) string {
	t.Helper()

	envPath := filepath.Join(dir, "sftp.env")
	if err := os.WriteFile(envPath, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return envPath
}
