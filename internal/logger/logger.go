// Package logger configures the shared logrus logger. Every component
// receives the logger through its constructor; nothing logs through a
// package-level global.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger at the given level writing to out. If out is nil,
// os.Stderr is used. Unknown level strings fall back to info.
func New(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
