// Package local resolves "local://" references from environment variables.
package local

import (
	"context"
	"fmt"
	"os"
	"strings"

	"simples-sftp/providers"
)

const (
	scheme = "local://"
	// DefaultVariable holds the passphrase when a reference names no variable.
	DefaultVariable = "SFTP_KEY_PASSPHRASE"
)

type provider struct{}

var getEnv = os.Getenv

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "local"
}

func (provider) Supports(secretRef string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(secretRef)), scheme)
}

// Resolve reads the variable named after the scheme, or DefaultVariable for
// a bare "local://".
func (provider) Resolve(_ context.Context, secretRef string) (string, error) {
	variable := strings.Trim(strings.TrimSpace(secretRef)[len(scheme):], "/ ")
	if variable == "" {
		variable = DefaultVariable
	}

	value := getEnv(variable)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("local passphrase is required (set %s or run interactively)", variable)
	}
	return value, nil
}
