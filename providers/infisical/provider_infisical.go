// Package infisical resolves "infisical://" references through the Infisical
// SDK using universal auth machine identity credentials from the environment.
//
//	infisical://SFTP_KEY_PASSPHRASE?projectId=<id>&env=prod
package infisical

import (
	"context"

	"simples-sftp/providers"
)

type provider struct{}

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "infisical"
}

func (provider) Supports(secretRef string) bool {
	_, ok := stripPrefix(secretRef)
	return ok
}

func (provider) Resolve(ctx context.Context, secretRef string) (string, error) {
	secretSpec, err := parseSecretRef(secretRef)
	if err != nil {
		return "", err
	}
	return resolveWithInfisicalSDK(ctx, secretSpec)
}
