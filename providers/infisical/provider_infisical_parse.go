package infisical

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var supportedPrefixes = []string{"infisical://", "inf://", "infisical:", "inf:"}

type secretLocator struct {
	secretName  string
	projectID   string
	environment string
	secretPath  string
}

func parseSecretRef(secretRef string) (secretLocator, error) {
	body, ok := stripPrefix(secretRef)
	if !ok {
		return secretLocator{}, fmt.Errorf("invalid infisical secret ref %q", secretRef)
	}

	secretNamePart, queryString, _ := strings.Cut(strings.TrimSpace(body), "?")
	secretName := strings.Trim(strings.TrimSpace(secretNamePart), "/")
	if secretName == "" {
		return secretLocator{}, errors.New("infisical secret ref is missing secret identifier")
	}

	queryValues, err := url.ParseQuery(queryString)
	if err != nil {
		return secretLocator{}, fmt.Errorf("invalid infisical secret ref query: %w", err)
	}

	return secretLocator{
		secretName:  secretName,
		projectID:   firstNonEmpty(queryValues.Get("projectId"), queryValues.Get("projectID"), queryValues.Get("workspaceId")),
		environment: firstNonEmpty(queryValues.Get("env"), queryValues.Get("environment")),
		secretPath:  firstNonEmpty(queryValues.Get("path")),
	}, nil
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

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
