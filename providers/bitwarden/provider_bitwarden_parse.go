package bitwarden

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func parseSecretID(secretRef string) (string, error) {
	secretID, ok := stripPrefix(secretRef)
	if !ok {
		return "", fmt.Errorf("invalid bitwarden secret ref %q", secretRef)
	}

	secretID = strings.TrimSpace(secretID)
	if secretID == "" {
		return "", errors.New("bitwarden secret ref is missing secret identifier")
	}
	return secretID, nil
}

// parseBWSSecretOutput extracts the value field of `bws secret get` JSON.
func parseBWSSecretOutput(commandOutput string) (string, error) {
	var response struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(commandOutput), &response); err != nil {
		return "", fmt.Errorf("bws output was not valid JSON: %w", err)
	}
	if strings.TrimSpace(response.Value) == "" {
		return "", errors.New("bws JSON output did not include a non-empty value")
	}
	return response.Value, nil
}
