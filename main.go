// Command simples-sftp uploads a file to, or downloads a directory from, an
// SFTP server using public key authentication.
//
//	simples-sftp [flags] upload <local-file> <remote-path>
//	simples-sftp [flags] download [--match glob] <remote-dir> <local-dir>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"simples-sftp/sftpclient"

	_ "simples-sftp/providers/bitwarden"
	_ "simples-sftp/providers/infisical"
	_ "simples-sftp/providers/local"
)

// statusError carries a process exit code plus user-facing error text.
type statusError struct {
	code int
	err  error
}

// Error implements the error interface.
func (statusErr *statusError) Error() string {
	return statusErr.err.Error()
}

func (statusErr *statusError) Unwrap() error {
	return statusErr.err
}

// transferClient is the part of *sftpclient.Client the commands use.
type transferClient interface {
	Upload(localFile, remotePath string) error
	Download(remoteDir, localDir string, filter sftpclient.Filter) ([]string, error)
}

var newTransferClient = func(target sftpclient.Target, trust sftpclient.HostTrust, keyPair sftpclient.KeyPair, opts ...sftpclient.Option) transferClient {
	return sftpclient.New(target, trust, keyPair, opts...)
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) {
			fmt.Fprintln(standardError, "Error:", statusErr.err)
			os.Exit(statusErr.code)
		}
		fmt.Fprintln(standardError, "Error:", err)
		os.Exit(2)
	}
}

// run parses args, loads configuration and credentials, and performs one
// transfer. Configuration problems exit 2, transfer failures exit 1.
func run(ctx context.Context, args []string) error {
	commandLine, err := parseCommandLine(args)
	if err != nil {
		return fail(2, "%w", err)
	}

	programOptions, err := loadOptions(commandLine)
	if err != nil {
		return fail(2, "%w", err)
	}

	logger, err := newLogger(programOptions.LogLevel, standardError)
	if err != nil {
		return fail(2, "%w", err)
	}

	trust, err := sftpclient.ParseHostTrust(programOptions.HostFingerprint)
	if err != nil {
		return fail(2, "%w", err)
	}

	keyPair, err := loadKeyPair(ctx, programOptions)
	if err != nil {
		return fail(2, "%w", err)
	}

	client := newTransferClient(
		sftpclient.Target{Host: programOptions.Host, Port: programOptions.Port, Username: programOptions.User},
		trust,
		keyPair,
		sftpclient.WithLogger(logger),
		sftpclient.WithDialTimeout(time.Duration(programOptions.TimeoutSec)*time.Second),
		sftpclient.WithKeepAlive(time.Duration(programOptions.KeepAliveSec)*time.Second),
	)

	switch commandLine.command {
	case commandUpload:
		if err := client.Upload(commandLine.arguments[0], commandLine.arguments[1]); err != nil {
			return fail(1, "upload failed: %w", err)
		}
	case commandDownload:
		var filter sftpclient.Filter = sftpclient.All
		if commandLine.match != "" {
			filter = sftpclient.MatchName(commandLine.match)
		}
		localPaths, err := client.Download(commandLine.arguments[0], commandLine.arguments[1], filter)
		if err != nil {
			return fail(1, "download failed: %w", err)
		}
		for _, localPath := range localPaths {
			fmt.Fprintln(standardOutput, localPath)
		}
	}
	return nil
}

// fail wraps an error with a specific process exit code.
func fail(code int, format string, args ...any) error {
	return &statusError{
		code: code,
		err:  fmt.Errorf(format, args...),
	}
}
