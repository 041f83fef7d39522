package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Downloaded paths go to standardOutput; prompts, logs and errors go to
// standardError so the path list stays pipeable.
var (
	standardOutput io.Writer = os.Stdout
	standardError  io.Writer = os.Stderr
)

func terminalFD(file *os.File) (int, bool) {
	if file == nil {
		return 0, false
	}
	fd := file.Fd()
	if fd > uintptr(int(^uint(0)>>1)) {
		return 0, false
	}
	return int(fd), true // #nosec G115 -- os.File descriptors fit into int on supported platforms
}

func isTerminal(file *os.File) bool {
	fd, ok := terminalFD(file)
	return ok && term.IsTerminal(fd)
}

func readPassword(file *os.File) ([]byte, error) {
	fd, ok := terminalFD(file)
	if !ok {
		return nil, errors.New("invalid terminal file descriptor")
	}
	return term.ReadPassword(fd)
}

// isInteractiveSession reports whether prompts can be shown and answered.
func isInteractiveSession() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stderr)
}

func promptLine(reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(standardError, label)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func outputPrintln(arguments ...any) {
	fmt.Fprintln(standardError, arguments...)
}

func outputPrintf(format string, arguments ...any) {
	fmt.Fprintf(standardError, format, arguments...)
}
