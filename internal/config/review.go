package config

import (
	"strconv"
	"strings"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindSecret
	kindPath
)

type configField struct {
	key   string
	label string
	kind  fieldKind
	get   func(*Options) string
}

func confirmLoadedConfigFields(programOptions *Options, loadedFieldNames map[string]bool, runtimeIO RuntimeIO) {
	if len(loadedFieldNames) == 0 {
		return
	}

	runtimeIO.Println("Loaded configuration values:")
	for _, field := range configFields() {
		if !loadedFieldNames[field.key] {
			continue
		}
		runtimeIO.Printf("%s: %s\n", field.label, previewFieldValue(field, programOptions))
	}
}

func configFields() []configField {
	return []configField{
		{key: "host", label: "Host", get: func(o *Options) string { return o.Host }},
		{key: "port", label: "Port", get: func(o *Options) string { return strconv.Itoa(o.Port) }},
		{key: "user", label: "SFTP User", get: func(o *Options) string { return o.User }},
		{key: "hostFingerprint", label: "Host Fingerprint", get: func(o *Options) string { return o.HostFingerprint }},
		{key: "privateKeyFile", label: "Private Key File", kind: kindPath, get: func(o *Options) string { return o.PrivateKeyFile }},
		{key: "passphrase", label: "Key Passphrase", kind: kindSecret, get: func(o *Options) string { return o.Passphrase }},
		{key: "passphraseSecretRef", label: "Passphrase Secret Ref", get: func(o *Options) string { return o.PassphraseSecretRef }},
		{key: "timeoutSec", label: "Timeout (Seconds)", get: func(o *Options) string { return strconv.Itoa(o.TimeoutSec) }},
		{key: "keepAliveSec", label: "Keep-Alive (Seconds)", get: func(o *Options) string { return strconv.Itoa(o.KeepAliveSec) }},
		{key: "logLevel", label: "Log Level", get: func(o *Options) string { return o.LogLevel }},
	}
}

func previewFieldValue(field configField, programOptions *Options) string {
	value := field.get(programOptions)
	switch field.kind {
	case kindSecret:
		return maskSensitiveValue(value)
	case kindPath:
		return previewTextValue(value, 120)
	default:
		return previewTextValue(value, 80)
	}
}

func previewTextValue(value string, maxLength int) string {
	trimmedValue := strings.TrimSpace(value)
	if trimmedValue == "" {
		return "<empty>"
	}
	if len(trimmedValue) <= maxLength {
		return trimmedValue
	}
	return trimmedValue[:maxLength] + "..."
}

func maskSensitiveValue(value string) string {
	if value == "" {
		return "<empty>"
	}
	return "<redacted>"
}
