// Package bitwarden resolves "bw://" references with the Bitwarden CLIs,
// trying the password manager (bw) before Secrets Manager (bws).
package bitwarden

import (
	"context"
	"errors"
	"strings"

	"simples-sftp/providers"
)

var supportedPrefixes = []string{"bw://", "bitwarden://", "bw:"}

type provider struct{}

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "bitwarden"
}

func (provider) Supports(secretRef string) bool {
	_, ok := stripPrefix(secretRef)
	return ok
}

func (provider) Resolve(ctx context.Context, secretRef string) (string, error) {
	secretID, err := parseSecretID(secretRef)
	if err != nil {
		return "", err
	}

	secretValue, bwErr := resolveWithBW(ctx, secretID)
	if bwErr == nil {
		return secretValue, nil
	}

	secretValue, bwsErr := resolveWithBWS(ctx, secretID)
	if bwsErr != nil {
		return "", errors.Join(bwErr, bwsErr)
	}
	return secretValue, nil
}

func stripPrefix(secretRef string) (string, bool) {
	trimmedRef := strings.TrimSpace(secretRef)
	for _, prefix := range supportedPrefixes {
		if len(trimmedRef) >= len(prefix) && strings.EqualFold(trimmedRef[:len(prefix)], prefix) {
			return trimmedRef[len(prefix):], true
		}
	}
	return "", false
}
