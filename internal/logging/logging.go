// Package logging holds the process-wide logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It writes to stderr at info level until
// configured otherwise.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// SetLevel sets the logger's level from a name.
// trace and panic levels are not exposed.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "", "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("bad log level %q", level)
	}
	return nil
}

// SetOutput redirects the logger.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
