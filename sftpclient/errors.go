package sftpclient

import (
	"errors"
	"fmt"
)

// Stage names the step of session setup that failed.
type Stage string

const (
	StageConnect      Stage = "connect"
	StageAuthenticate Stage = "authenticate"
	StageOpenFiles    Stage = "open sftp"
)

// SessionError reports a failure while a session was being set up.
// Errors returned by a session body are never wrapped in a SessionError.
type SessionError struct {
	Stage Stage
	Addr  string
	Err   error
}

// Error implements the error interface.
func (sessionErr *SessionError) Error() string {
	if sessionErr == nil || sessionErr.Err == nil {
		return "sftp session failed"
	}
	return fmt.Sprintf("%s %s: %v", sessionErr.Stage, sessionErr.Addr, sessionErr.Err)
}

func (sessionErr *SessionError) Unwrap() error {
	return sessionErr.Err
}

// HostKeyError is returned when the peer presents a key whose fingerprint
// does not match the configured one.
type HostKeyError struct {
	Host string
	Want string
	Got  string
}

// Error implements the error interface.
func (hostKeyErr *HostKeyError) Error() string {
	return fmt.Sprintf("host key for %s has fingerprint %s, want %s", hostKeyErr.Host, hostKeyErr.Got, hostKeyErr.Want)
}

// IsConnectError reports whether err came from the connect stage, which
// includes host key verification failures.
func IsConnectError(err error) bool {
	return stageOf(err) == StageConnect
}

// IsAuthError reports whether err came from public key authentication.
func IsAuthError(err error) bool {
	return stageOf(err) == StageAuthenticate
}

func stageOf(err error) Stage {
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		return ""
	}
	return sessionErr.Stage
}
