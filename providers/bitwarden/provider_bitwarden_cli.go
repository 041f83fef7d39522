package bitwarden

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const secretCommandTimeout = 10 * time.Second

func resolveWithBW(ctx context.Context, secretID string) (string, error) {
	commandOutput, err := runBWSecretCommand(ctx, secretID)
	if err != nil {
		return "", fmt.Errorf("bw: %w", err)
	}
	resolvedValue := strings.TrimRight(commandOutput, "\r\n")
	if strings.TrimSpace(resolvedValue) == "" {
		return "", errors.New("bw returned an empty secret value")
	}
	return resolvedValue, nil
}

func resolveWithBWS(ctx context.Context, secretID string) (string, error) {
	commandOutput, err := runBWSSecretCommand(ctx, secretID)
	if err != nil {
		return "", fmt.Errorf("bws: %w", err)
	}
	return parseBWSSecretOutput(commandOutput)
}

func runBWSecretCommand(ctx context.Context, secretID string) (string, error) {
	return runSecretCommand(ctx, "bw", "get", "password", secretID)
}

func runBWSSecretCommand(ctx context.Context, secretID string) (string, error) {
	return runSecretCommand(ctx, "bws", "secret", "get", secretID)
}

func runSecretCommand(ctx context.Context, command string, args ...string) (string, error) {
	commandContext, cancel := context.WithTimeout(ctx, secretCommandTimeout)
	defer cancel()

	return runAndCaptureOutput(commandContext, exec.CommandContext(commandContext, command, args...)) // #nosec G204 -- fixed command names, secret id passed as a single argument
}

// runAndCaptureOutput returns stdout. On failure the command's stderr is
// folded into the error.
func runAndCaptureOutput(commandContext context.Context, cmd *exec.Cmd) (string, error) {
	var stderr strings.Builder
	cmd.Stderr = &stderr

	commandOutput, err := cmd.Output()
	if err != nil {
		if errors.Is(commandContext.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("command timed out after %s", secretCommandTimeout)
		}
		if message := strings.TrimSpace(stderr.String()); message != "" {
			return "", fmt.Errorf("%w: %s", err, message)
		}
		return "", err
	}
	return string(commandOutput), nil
}
