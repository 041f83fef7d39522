package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	appconfig "simples-sftp/internal/config"
)

const (
	commandUpload   = "upload"
	commandDownload = "download"
)

// commandLine is one parsed invocation. flagOptions holds only values given
// as flags; providedFlagNames says which ones.
type commandLine struct {
	command           string
	arguments         []string
	match             string
	flagOptions       appconfig.Options
	providedFlagNames map[string]bool
}

func parseCommandLine(args []string) (commandLine, error) {
	parsed := commandLine{providedFlagNames: map[string]bool{}}

	flagSet := flag.NewFlagSet("simples-sftp", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	bindGlobalFlags(flagSet, &parsed.flagOptions)
	if err := flagSet.Parse(args); err != nil {
		return commandLine{}, usageError(err)
	}
	flagSet.Visit(func(currentFlag *flag.Flag) {
		parsed.providedFlagNames[currentFlag.Name] = true
	})

	if flagSet.NArg() == 0 {
		return commandLine{}, usageError(errors.New("a command is required"))
	}
	parsed.command = strings.ToLower(flagSet.Arg(0))
	commandArgs := flagSet.Args()[1:]

	switch parsed.command {
	case commandUpload:
		parsed.arguments = commandArgs
	case commandDownload:
		downloadFlags := flag.NewFlagSet(commandDownload, flag.ContinueOnError)
		downloadFlags.SetOutput(io.Discard)
		downloadFlags.StringVar(&parsed.match, "match", "", "Only download files whose name matches this glob")
		if err := downloadFlags.Parse(commandArgs); err != nil {
			return commandLine{}, usageError(err)
		}
		parsed.arguments = downloadFlags.Args()
	default:
		return commandLine{}, usageError(fmt.Errorf("unknown command %q", parsed.command))
	}

	if len(parsed.arguments) != 2 {
		return commandLine{}, usageError(fmt.Errorf("%s takes exactly two arguments, got %d", parsed.command, len(parsed.arguments)))
	}
	return parsed, nil
}

func bindGlobalFlags(flagSet *flag.FlagSet, flagOptions *appconfig.Options) {
	flagSet.StringVar(&flagOptions.EnvFile, "env-file", "", "Path to .env config file")
	flagSet.StringVar(&flagOptions.Host, "host", "", "SFTP server host")
	flagSet.IntVar(&flagOptions.Port, "port", 0, "SFTP server port (default 22)")
	flagSet.StringVar(&flagOptions.User, "user", "", "SFTP username")
	flagSet.StringVar(&flagOptions.HostFingerprint, "host-fingerprint", "", "Expected host key fingerprint (MD5 or SHA256:...), public key, or OFF")
	flagSet.StringVar(&flagOptions.PrivateKeyFile, "private-key", "", "Path to private key; the public key is read from <path>.pub")
	flagSet.StringVar(&flagOptions.PassphraseSecretRef, "passphrase-secret-ref", "", "Secret reference for the key passphrase (local://, bw://, infisical://)")
	flagSet.IntVar(&flagOptions.TimeoutSec, "timeout", 0, "Connect timeout in seconds (default 10)")
	flagSet.IntVar(&flagOptions.KeepAliveSec, "keepalive", 0, "Keep-alive interval in seconds, 0 disables")
	flagSet.StringVar(&flagOptions.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func usageError(err error) error {
	return fmt.Errorf("%w\nusage: simples-sftp [flags] upload <local-file> <remote-path>\n       simples-sftp [flags] download [--match glob] <remote-dir> <local-dir>", err)
}
