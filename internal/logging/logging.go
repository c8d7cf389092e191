// Package logging configures the shared logrus logger for voclens.
package logging

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// New builds a configured logrus entry. Interactive terminals get colored
// text output; everything else gets JSON for log shipping.
func New(level string) *logrus.Entry {
	base := logrus.New()
	base.SetOutput(os.Stderr)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	switch level {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return logrus.NewEntry(base)
}
