package main

import (
	"bufio"
	"fmt"
	"os"

	appconfig "simples-sftp/internal/config"
)

// configRuntimeIO adapts the CLI's stdin and stdout to appconfig.RuntimeIO.
type configRuntimeIO struct {
	inputReader *bufio.Reader
}

func (runtimeIO configRuntimeIO) PromptLine(label string) (string, error) {
	return promptLine(runtimeIO.inputReader, label)
}

func (configRuntimeIO) Println(arguments ...any) {
	outputPrintln(arguments...)
}

func (configRuntimeIO) Printf(format string, arguments ...any) {
	outputPrintf(format, arguments...)
}

func (configRuntimeIO) IsInteractive() bool {
	return isInteractiveSession()
}

// loadOptions merges the .env file with the flags, flags winning, then
// fills defaults and validates the result.
func loadOptions(parsed commandLine) (*appconfig.Options, error) {
	programOptions := &appconfig.Options{EnvFile: parsed.flagOptions.EnvFile}

	runtimeIO := configRuntimeIO{inputReader: bufio.NewReader(os.Stdin)}
	if _, err := appconfig.ApplyFiles(programOptions, runtimeIO); err != nil {
		return nil, err
	}

	overlayFlags(programOptions, parsed.flagOptions, parsed.providedFlagNames)
	appconfig.ApplyDefaults(programOptions)
	if err := appconfig.Validate(programOptions); err != nil {
		return nil, err
	}

	privateKeyFile, err := appconfig.ExpandHomePath(programOptions.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("resolve PRIVATE_KEY path: %w", err)
	}
	programOptions.PrivateKeyFile = privateKeyFile
	return programOptions, nil
}

func overlayFlags(programOptions *appconfig.Options, flagOptions appconfig.Options, providedFlagNames map[string]bool) {
	textFlags := map[string]struct {
		target *string
		value  string
	}{
		"host":                  {&programOptions.Host, flagOptions.Host},
		"user":                  {&programOptions.User, flagOptions.User},
		"host-fingerprint":      {&programOptions.HostFingerprint, flagOptions.HostFingerprint},
		"private-key":           {&programOptions.PrivateKeyFile, flagOptions.PrivateKeyFile},
		"passphrase-secret-ref": {&programOptions.PassphraseSecretRef, flagOptions.PassphraseSecretRef},
		"log-level":             {&programOptions.LogLevel, flagOptions.LogLevel},
	}
	for flagName, field := range textFlags {
		if providedFlagNames[flagName] {
			*field.target = field.value
		}
	}

	intFlags := map[string]struct {
		target *int
		value  int
	}{
		"port":      {&programOptions.Port, flagOptions.Port},
		"timeout":   {&programOptions.TimeoutSec, flagOptions.TimeoutSec},
		"keepalive": {&programOptions.KeepAliveSec, flagOptions.KeepAliveSec},
	}
	for flagName, field := range intFlags {
		if providedFlagNames[flagName] {
			*field.target = field.value
		}
	}

	// A secret ref given on the command line replaces a passphrase from .env.
	if providedFlagNames["passphrase-secret-ref"] {
		programOptions.Passphrase = ""
	}
}
