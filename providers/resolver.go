// Package providers resolves secret references such as "bw://id" into the
// secret they name. Concrete providers register themselves from their own
// packages' init functions.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

type Provider interface {
	Name() string
	Supports(ref string) bool
	Resolve(ctx context.Context, ref string) (string, error)
}

var (
	providerRegistryMu sync.RWMutex
	providerRegistry   []Provider
)

// RegisterProvider adds provider to the registry. A provider whose name is
// blank or already registered is ignored.
func RegisterProvider(provider Provider) {
	if provider == nil {
		return
	}

	providerName := strings.TrimSpace(provider.Name())
	if providerName == "" {
		return
	}

	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()

	for _, registeredProvider := range providerRegistry {
		if strings.EqualFold(strings.TrimSpace(registeredProvider.Name()), providerName) {
			return
		}
	}
	providerRegistry = append(providerRegistry, provider)
}

// DefaultProviders returns a copy of the registry in registration order.
func DefaultProviders() []Provider {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()

	registeredProviders := make([]Provider, len(providerRegistry))
	copy(registeredProviders, providerRegistry)
	return registeredProviders
}

// ResolveSecretReference asks each provider that supports secretRef in turn
// and returns the first secret resolved. Trailing line breaks are stripped;
// other whitespace is part of the secret.
func ResolveSecretReference(ctx context.Context, secretRef string, providers []Provider) (string, error) {
	trimmedRef := strings.TrimSpace(secretRef)
	if trimmedRef == "" {
		return "", errors.New("secret reference is empty")
	}

	var resolveErrors []error
	for _, provider := range providers {
		if !provider.Supports(trimmedRef) {
			continue
		}

		resolvedValue, err := provider.Resolve(ctx, trimmedRef)
		if err != nil {
			resolveErrors = append(resolveErrors, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}
		resolvedValue = strings.TrimRight(resolvedValue, "\r\n")
		if strings.TrimSpace(resolvedValue) == "" {
			return "", fmt.Errorf("%s returned an empty secret", provider.Name())
		}
		return resolvedValue, nil
	}

	if len(resolveErrors) == 0 {
		return "", fmt.Errorf("no provider supports secret reference %q", trimmedRef)
	}
	return "", fmt.Errorf("resolve %q failed: %w", trimmedRef, errors.Join(resolveErrors...))
}
