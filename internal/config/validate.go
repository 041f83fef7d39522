package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	DefaultPort       = 22
	DefaultTimeoutSec = 10
	DefaultLogLevel   = "info"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ApplyDefaults fills unset numeric and level fields.
func ApplyDefaults(programOptions *Options) {
	if programOptions.Port == 0 {
		programOptions.Port = DefaultPort
	}
	if programOptions.TimeoutSec == 0 {
		programOptions.TimeoutSec = DefaultTimeoutSec
	}
	if strings.TrimSpace(programOptions.LogLevel) == "" {
		programOptions.LogLevel = DefaultLogLevel
	}
	programOptions.LogLevel = strings.ToLower(strings.TrimSpace(programOptions.LogLevel))
}

// Validate reports the first problem that would stop a transfer from being
// attempted.
func Validate(programOptions *Options) error {
	if programOptions == nil {
		return errors.New("program options are required")
	}

	required := []struct {
		name  string
		value string
	}{
		{"HOST", programOptions.Host},
		{"USER", programOptions.User},
		{"HOST_FINGERPRINT", programOptions.HostFingerprint},
		{"PRIVATE_KEY", programOptions.PrivateKeyFile},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}

	if programOptions.Port < 1 || programOptions.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", programOptions.Port)
	}
	if programOptions.TimeoutSec < 1 {
		return fmt.Errorf("TIMEOUT must be a positive number of seconds, got %d", programOptions.TimeoutSec)
	}
	if programOptions.KeepAliveSec < 0 {
		return fmt.Errorf("KEEPALIVE must not be negative, got %d", programOptions.KeepAliveSec)
	}
	if programOptions.Passphrase != "" && strings.TrimSpace(programOptions.PassphraseSecretRef) != "" {
		return errors.New("set only one of the passphrase and the passphrase secret ref")
	}

	level := strings.ToLower(strings.TrimSpace(programOptions.LogLevel))
	if level != "" && !slices.Contains(validLogLevels, level) {
		return fmt.Errorf("LOG_LEVEL must be one of %s, got %q", strings.Join(validLogLevels, ", "), programOptions.LogLevel)
	}
	return nil
}
