package infisical

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	infisicalsdk "github.com/infisical/go-sdk"
)

const (
	defaultInfisicalSiteURL = "https://app.infisical.com"
	defaultSecretPath       = "/"
)

type sdkRuntimeConfig struct {
	siteURL          string
	projectID        string
	environment      string
	secretPath       string
	clientID         string
	clientSecret     string
	organizationSlug string
}

type sdkRetrieveSecretOptions struct {
	secretKey   string
	projectID   string
	environment string
	secretPath  string
}

type infisicalSDKClient interface {
	LoginUniversalAuth(clientID, clientSecret, organizationSlug string) error
	RetrieveSecret(options sdkRetrieveSecretOptions) (string, error)
}

type infisicalSDKAdapter struct {
	client infisicalsdk.InfisicalClientInterface
}

var (
	envGetter = os.Getenv

	newInfisicalSDKClient = func(ctx context.Context, siteURL string) infisicalSDKClient {
		return &infisicalSDKAdapter{
			client: infisicalsdk.NewInfisicalClient(ctx, infisicalsdk.Config{SiteUrl: siteURL}),
		}
	}
)

func resolveWithInfisicalSDK(ctx context.Context, secretSpec secretLocator) (string, error) {
	resolvedConfig, err := loadSDKRuntimeConfig(secretSpec)
	if err != nil {
		return "", err
	}

	client := newInfisicalSDKClient(ctx, resolvedConfig.siteURL)
	if err := client.LoginUniversalAuth(resolvedConfig.clientID, resolvedConfig.clientSecret, resolvedConfig.organizationSlug); err != nil {
		return "", err
	}

	return client.RetrieveSecret(sdkRetrieveSecretOptions{
		secretKey:   secretSpec.secretName,
		projectID:   resolvedConfig.projectID,
		environment: resolvedConfig.environment,
		secretPath:  resolvedConfig.secretPath,
	})
}

// loadSDKRuntimeConfig merges the reference's query with INFISICAL_*
// variables. Values in the reference win.
func loadSDKRuntimeConfig(secretSpec secretLocator) (sdkRuntimeConfig, error) {
	normalizedSiteURL, err := normalizeInfisicalSiteURL(firstNonEmpty(envGetter("INFISICAL_SITE_URL"), defaultInfisicalSiteURL))
	if err != nil {
		return sdkRuntimeConfig{}, err
	}

	resolvedConfig := sdkRuntimeConfig{
		siteURL:          normalizedSiteURL,
		clientID:         strings.TrimSpace(envGetter("INFISICAL_UNIVERSAL_AUTH_CLIENT_ID")),
		clientSecret:     strings.TrimSpace(envGetter("INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET")),
		projectID:        firstNonEmpty(secretSpec.projectID, envGetter("INFISICAL_PROJECT_ID")),
		environment:      firstNonEmpty(secretSpec.environment, envGetter("INFISICAL_ENV")),
		secretPath:       firstNonEmpty(secretSpec.secretPath, envGetter("INFISICAL_SECRET_PATH"), defaultSecretPath),
		organizationSlug: strings.TrimSpace(envGetter("INFISICAL_AUTH_ORGANIZATION_SLUG")),
	}

	switch {
	case resolvedConfig.clientID == "":
		return sdkRuntimeConfig{}, errors.New("infisical universal auth client id is required (set INFISICAL_UNIVERSAL_AUTH_CLIENT_ID)")
	case resolvedConfig.clientSecret == "":
		return sdkRuntimeConfig{}, errors.New("infisical universal auth client secret is required (set INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET)")
	case resolvedConfig.projectID == "":
		return sdkRuntimeConfig{}, errors.New("infisical project id is required (add ?projectId= or set INFISICAL_PROJECT_ID)")
	case resolvedConfig.environment == "":
		return sdkRuntimeConfig{}, errors.New("infisical environment is required (add ?env= or set INFISICAL_ENV)")
	}
	return resolvedConfig, nil
}

func (adapter *infisicalSDKAdapter) LoginUniversalAuth(clientID, clientSecret, organizationSlug string) error {
	authClient := adapter.client.Auth()
	if organizationSlug != "" {
		authClient = authClient.WithOrganizationSlug(organizationSlug)
	}

	if _, err := authClient.UniversalAuthLogin(clientID, clientSecret); err != nil {
		return fmt.Errorf("infisical universal auth login failed: %w", err)
	}
	return nil
}

func (adapter *infisicalSDKAdapter) RetrieveSecret(options sdkRetrieveSecretOptions) (string, error) {
	secret, err := adapter.client.Secrets().Retrieve(infisicalsdk.RetrieveSecretOptions{
		SecretKey:   options.secretKey,
		ProjectID:   options.projectID,
		Environment: options.environment,
		SecretPath:  options.secretPath,
	})
	if err != nil {
		return "", fmt.Errorf("infisical secret retrieval failed: %w", err)
	}
	if strings.TrimSpace(secret.SecretValue) == "" {
		return "", errors.New("infisical response did not contain a non-empty secret value")
	}
	return secret.SecretValue, nil
}

func normalizeInfisicalSiteURL(rawSiteURL string) (string, error) {
	parsedSiteURL, err := url.Parse(strings.TrimSpace(rawSiteURL))
	if err != nil {
		return "", fmt.Errorf("invalid infisical site url: %w", err)
	}
	switch {
	case !strings.EqualFold(parsedSiteURL.Scheme, "https"):
		return "", errors.New("infisical site url must use https")
	case parsedSiteURL.Host == "":
		return "", errors.New("infisical site url must include a host")
	case parsedSiteURL.Path != "" && parsedSiteURL.Path != "/":
		return "", errors.New("infisical site url must not include a path (example: https://app.infisical.com)")
	case parsedSiteURL.RawQuery != "" || parsedSiteURL.Fragment != "" || parsedSiteURL.User != nil:
		return "", errors.New("infisical site url must be a plain host URL without query, fragment, or user info")
	}
	return "https://" + parsedSiteURL.Host, nil
}
