package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the CLI logger. Diagnostics go to stderr so stdout stays clean
// for command output. debug forces the debug level regardless of level.
func New(level string, debug bool) *logrus.Logger {
	return NewWithWriter(os.Stderr, level, debug)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	if debug {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ValidLevel reports whether level names a logrus level.
func ValidLevel(level string) bool {
	_, err := logrus.ParseLevel(level)
	return err == nil
}
