package sftpclient

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/ssh"
)

// TrustOff is the configuration value that disables host key verification.
const TrustOff = "OFF"

const sha256FingerprintPrefix = "SHA256:"

// HostTrust decides which host keys a session accepts. The zero value
// rejects every key.
type HostTrust struct {
	fingerprint string
	insecure    bool
}

// Fingerprint trusts only a host key with exactly this fingerprint. Both
// "SHA256:<base64>" and colon-separated MD5 notations are understood.
func Fingerprint(fingerprint string) HostTrust {
	return HostTrust{fingerprint: strings.TrimSpace(fingerprint)}
}

// InsecureIgnoreHostKey accepts any host key. A warning is logged each time
// a session opens in this mode; do not use it against production hosts.
func InsecureIgnoreHostKey() HostTrust {
	return HostTrust{insecure: true}
}

// Insecure reports whether host key verification is disabled.
func (trust HostTrust) Insecure() bool {
	return trust.insecure
}

func (trust HostTrust) String() string {
	if trust.insecure {
		return TrustOff
	}
	return trust.fingerprint
}

// ParseHostTrust turns a configured host key value into a HostTrust. The
// value is "OFF", a fingerprint (anything containing ':'), or a public key
// literal such as "ssh-rsa AAAA...", which is reduced to its MD5 fingerprint.
func ParseHostTrust(value string) (HostTrust, error) {
	trimmedValue := strings.TrimSpace(value)
	switch {
	case trimmedValue == "":
		return HostTrust{}, errors.New("host fingerprint is required (use OFF to disable verification)")
	case strings.EqualFold(trimmedValue, TrustOff):
		return InsecureIgnoreHostKey(), nil
	case strings.HasPrefix(trimmedValue, "ssh-") || strings.HasPrefix(trimmedValue, "ecdsa-"):
		publicKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(trimmedValue))
		if err != nil {
			return HostTrust{}, fmt.Errorf("invalid host public key: %w", err)
		}
		return Fingerprint(ssh.FingerprintLegacyMD5(publicKey)), nil
	case strings.Contains(trimmedValue, ":"):
		return Fingerprint(trimmedValue), nil
	default:
		return HostTrust{}, fmt.Errorf("unrecognized host fingerprint %q (expected xx:xx:..., SHA256:..., a public key, or OFF)", trimmedValue)
	}
}

func (trust HostTrust) hostKeyCallback() ssh.HostKeyCallback {
	if trust.insecure {
		return ssh.InsecureIgnoreHostKey() // #nosec G106 -- explicitly configured with OFF
	}
	wantFingerprint := trust.fingerprint
	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		gotFingerprint := presentedFingerprint(wantFingerprint, key)
		if wantFingerprint == "" || gotFingerprint != wantFingerprint {
			return &HostKeyError{Host: hostname, Want: wantFingerprint, Got: gotFingerprint}
		}
		return nil
	}
}

// presentedFingerprint renders key in the same notation as want.
func presentedFingerprint(want string, key ssh.PublicKey) string {
	if strings.HasPrefix(want, sha256FingerprintPrefix) {
		return ssh.FingerprintSHA256(key)
	}
	return ssh.FingerprintLegacyMD5(key)
}
