package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultBinaryDotEnvFilename = ".env"

// RuntimeIO is the terminal surface the loader talks to.
type RuntimeIO interface {
	PromptLine(label string) (string, error)
	Println(arguments ...any)
	Printf(format string, arguments ...any)
	IsInteractive() bool
}

// ApplyFiles loads the .env file named by programOptions.EnvFile. When none
// is named and the session is interactive, a .env next to the binary is
// offered instead. Loaded values are echoed back, masked, on interactive runs.
// It returns the names of the fields that were loaded.
func ApplyFiles(programOptions *Options, runtimeIO RuntimeIO) (map[string]bool, error) {
	if programOptions == nil {
		return nil, errors.New("program options are required")
	}
	if runtimeIO == nil {
		return nil, errors.New("runtime IO is required")
	}

	selectedDotEnvPath, err := resolveDotEnvSource(programOptions, runtimeIO)
	if err != nil {
		return nil, err
	}
	if selectedDotEnvPath == "" {
		return map[string]bool{}, nil
	}

	programOptions.EnvFile = selectedDotEnvPath
	loadedFieldNames, err := ApplyDotEnvWithMetadata(programOptions)
	if err != nil {
		return nil, err
	}
	if runtimeIO.IsInteractive() {
		confirmLoadedConfigFields(programOptions, loadedFieldNames, runtimeIO)
	}
	return loadedFieldNames, nil
}

func resolveDotEnvSource(programOptions *Options, runtimeIO RuntimeIO) (string, error) {
	if explicitDotEnvPath := strings.TrimSpace(programOptions.EnvFile); explicitDotEnvPath != "" {
		return explicitDotEnvPath, nil
	}
	if !runtimeIO.IsInteractive() {
		return "", nil
	}

	discoveredDotEnvPath, err := discoverConfigFileNearBinary()
	if err != nil || discoveredDotEnvPath == "" {
		return "", err
	}

	useDotEnv, err := promptYesNo(runtimeIO, fmt.Sprintf("Found .env next to the binary at %q. Use it? [y/n]: ", discoveredDotEnvPath))
	if err != nil || !useDotEnv {
		return "", err
	}
	return discoveredDotEnvPath, nil
}

func discoverConfigFileNearBinary() (string, error) {
	executablePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}

	dotEnvPath := filepath.Join(filepath.Dir(executablePath), defaultBinaryDotEnvFilename)
	if !fileExists(dotEnvPath) {
		return "", nil
	}
	return dotEnvPath, nil
}

func promptYesNo(runtimeIO RuntimeIO, label string) (bool, error) {
	for {
		answer, err := runtimeIO.PromptLine(label)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		runtimeIO.Println("Please answer with y or n.")
	}
}

func fileExists(path string) bool {
	fileInfo, err := os.Stat(path)
	return err == nil && !fileInfo.IsDir()
}
