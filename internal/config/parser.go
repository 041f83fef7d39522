package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

const maxDotEnvLineBytes = 64 * 1024

// parseDotEnvContent reads KEY=VALUE lines. Keys are case-insensitive and
// returned upper-cased; a later line overrides an earlier one.
func parseDotEnvContent(dotEnvContent string) (map[string]string, error) {
	values := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(normalizeLF(dotEnvContent)))
	scanner.Buffer(make([]byte, 0, 4096), maxDotEnvLineBytes)

	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		key, value, skip, err := parseDotEnvLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if skip {
			continue
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func parseDotEnvLine(rawLine string) (key, value string, skip bool, err error) {
	line := strings.TrimSpace(rawLine)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", true, nil
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	rawKey, rawValue, found := strings.Cut(line, "=")
	if !found {
		return "", "", false, errors.New("expected KEY=VALUE")
	}
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return "", "", false, errors.New("key is empty")
	}
	if !isValidDotEnvKey(rawKey) {
		return "", "", false, fmt.Errorf("invalid key %q", rawKey)
	}

	value, err = parseDotEnvValue(strings.TrimSpace(rawValue))
	if err != nil {
		return "", "", false, err
	}
	return strings.ToUpper(rawKey), value, false, nil
}

func isValidDotEnvKey(key string) bool {
	for index, character := range key {
		if character > unicode.MaxASCII {
			return false
		}
		switch {
		case character == '_', unicode.IsLetter(character):
		case index > 0 && unicode.IsDigit(character):
		default:
			return false
		}
	}
	return key != ""
}

// parseDotEnvValue unquotes a value. Double quotes use Go escapes, single
// quotes are literal, and an unquoted '#' starts a comment.
func parseDotEnvValue(rawValue string) (string, error) {
	switch {
	case rawValue == "":
		return "", nil
	case rawValue[0] == '"':
		if len(rawValue) == 1 || !strings.HasSuffix(rawValue, `"`) {
			return "", errors.New("unterminated double-quoted value")
		}
		unquoted, err := strconv.Unquote(rawValue)
		if err != nil {
			return "", fmt.Errorf("invalid double-quoted value: %w", err)
		}
		return unquoted, nil
	case rawValue[0] == '\'':
		if len(rawValue) == 1 || !strings.HasSuffix(rawValue, "'") {
			return "", errors.New("unterminated single-quoted value")
		}
		return rawValue[1 : len(rawValue)-1], nil
	}

	if commentStart := strings.IndexByte(rawValue, '#'); commentStart >= 0 {
		rawValue = rawValue[:commentStart]
	}
	return strings.TrimSpace(rawValue), nil
}

func normalizeLF(value string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(value)
}

// ExpandHomePath expands a leading "~" to the user's home directory.
func ExpandHomePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is empty")
	}
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
