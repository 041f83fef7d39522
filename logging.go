package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

func newLogger(level string, w io.Writer) (*log.Logger, error) {
	parsedLevel, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           parsedLevel,
		ReportTimestamp: true,
		Prefix:          "simples-sftp",
	}), nil
}
