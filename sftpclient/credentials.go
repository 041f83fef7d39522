package sftpclient

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// KeyPair is the credential used for public key authentication.
type KeyPair struct {
	signer ssh.Signer
}

// NewKeyPair wraps an already loaded signer.
func NewKeyPair(signer ssh.Signer) KeyPair {
	return KeyPair{signer: signer}
}

// PublicKey returns the public half of the pair, or nil for the zero value.
func (keyPair KeyPair) PublicKey() ssh.PublicKey {
	if keyPair.signer == nil {
		return nil
	}
	return keyPair.signer.PublicKey()
}

func (keyPair KeyPair) valid() bool {
	return keyPair.signer != nil
}

// LoadKeyPair reads the private key at privateKeyFile and its public key at
// privateKeyFile + ".pub". The passphrase is only used when non-empty; an
// encrypted key loaded without one fails with an error wrapping
// *ssh.PassphraseMissingError.
func LoadKeyPair(privateKeyFile string, passphrase []byte) (KeyPair, error) {
	if privateKeyFile == "" {
		return KeyPair{}, errors.New("private key file is required")
	}

	publicKeyBytes, err := os.ReadFile(privateKeyFile + ".pub") // #nosec G304 -- key path is operator configuration
	if err != nil {
		return KeyPair{}, fmt.Errorf("read public key: %w", err)
	}
	publicKey, _, _, _, err := ssh.ParseAuthorizedKey(publicKeyBytes)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse public key %s.pub: %w", privateKeyFile, err)
	}

	privateKeyBytes, err := os.ReadFile(privateKeyFile) // #nosec G304 -- key path is operator configuration
	if err != nil {
		return KeyPair{}, fmt.Errorf("read private key: %w", err)
	}

	var signer ssh.Signer
	if len(passphrase) > 0 {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(privateKeyBytes, passphrase)
	} else {
		signer, err = ssh.ParsePrivateKey(privateKeyBytes)
	}
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse private key %s: %w", privateKeyFile, err)
	}

	if !bytes.Equal(signer.PublicKey().Marshal(), publicKey.Marshal()) {
		return KeyPair{}, fmt.Errorf("public key %s.pub does not match private key", privateKeyFile)
	}
	return KeyPair{signer: signer}, nil
}

// IsPassphraseMissing reports whether err means the private key is
// encrypted and no passphrase was supplied.
func IsPassphraseMissing(err error) bool {
	var missingErr *ssh.PassphraseMissingError
	return errors.As(err, &missingErr)
}
