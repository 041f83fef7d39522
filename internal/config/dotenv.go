package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ApplyDotEnvWithMetadata loads programOptions.EnvFile, if set, into
// programOptions and reports which fields it set, keyed by field name.
func ApplyDotEnvWithMetadata(programOptions *Options) (map[string]bool, error) {
	if programOptions == nil {
		return nil, errors.New("program options are required")
	}

	loadedFieldNames := map[string]bool{}
	if strings.TrimSpace(programOptions.EnvFile) == "" {
		return loadedFieldNames, nil
	}

	envFilePath, err := ExpandHomePath(strings.TrimSpace(programOptions.EnvFile))
	if err != nil {
		return nil, fmt.Errorf("resolve .env path: %w", err)
	}
	envBytes, err := os.ReadFile(envFilePath) // #nosec G304 -- dotenv path is explicit user input
	if err != nil {
		return nil, fmt.Errorf("read .env file: %w", err)
	}

	parsedEnvValues, err := parseDotEnvContent(string(envBytes))
	if err != nil {
		return nil, fmt.Errorf("parse .env file: %w", err)
	}

	if nonEmpty(parsedEnvValues, "PRIVATE_KEY_PASSPHRASE") && nonEmpty(parsedEnvValues, "PRIVATE_KEY_PASSPHRASE_SECRET_REF") {
		return nil, errors.New(".env must set only one of PRIVATE_KEY_PASSPHRASE/PRIVATE_KEY_PASSPHRASE_SECRET_REF")
	}

	textFields := []struct {
		envKey    string
		fieldName string
		trim      bool
		target    *string
	}{
		{"HOST", "host", true, &programOptions.Host},
		{"USER", "user", true, &programOptions.User},
		{"HOST_FINGERPRINT", "hostFingerprint", true, &programOptions.HostFingerprint},
		{"PRIVATE_KEY", "privateKeyFile", true, &programOptions.PrivateKeyFile},
		{"PRIVATE_KEY_PASSPHRASE", "passphrase", false, &programOptions.Passphrase},
		{"PRIVATE_KEY_PASSPHRASE_SECRET_REF", "passphraseSecretRef", true, &programOptions.PassphraseSecretRef},
		{"LOG_LEVEL", "logLevel", true, &programOptions.LogLevel},
	}
	for _, field := range textFields {
		value, ok := parsedEnvValues[field.envKey]
		if !ok {
			continue
		}
		if field.trim {
			value = strings.TrimSpace(value)
		}
		*field.target = value
		loadedFieldNames[field.fieldName] = true
	}

	intFields := []struct {
		envKey    string
		fieldName string
		target    *int
	}{
		{"PORT", "port", &programOptions.Port},
		{"TIMEOUT", "timeoutSec", &programOptions.TimeoutSec},
		{"KEEPALIVE", "keepAliveSec", &programOptions.KeepAliveSec},
	}
	for _, field := range intFields {
		value, ok := parsedEnvValues[field.envKey]
		if !ok {
			continue
		}
		number, conversionErr := strconv.Atoi(strings.TrimSpace(value))
		if conversionErr != nil {
			return nil, fmt.Errorf(".env key %s must be an integer: %w", field.envKey, conversionErr)
		}
		*field.target = number
		loadedFieldNames[field.fieldName] = true
	}

	return loadedFieldNames, nil
}

func nonEmpty(values map[string]string, key string) bool {
	return strings.TrimSpace(values[key]) != ""
}
