// Package logging builds the logrus logger shared by the CLI and the server.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// New returns a logger writing to out at the named level. Terminals get the
// coloured text formatter, everything else gets JSON lines.
func New(level string, out io.Writer) (*log.Logger, error) {
	if out == nil {
		out = os.Stderr
	}
	logger := log.New()
	logger.SetOutput(out)

	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	logger.SetLevel(lvl)

	if IsTerminal(out) {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
