package logs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger.
var Logger = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return l
}

// SetLevel accepts logrus level names; unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// SetOutput redirects the logger, mainly for tests and the CLI.
func SetOutput(out io.Writer) {
	Logger.SetOutput(out)
}

// LogJSON writes one entry at the given severity
// ("DEBUG", "INFO", "WARN", "ERROR" & "FATAL").
func LogJSON(level, message string, fields map[string]interface{}) {
	entry := Logger.WithFields(logrus.Fields(fields))
	switch strings.ToUpper(level) {
	case "DEBUG":
		entry.Debug(message)
	case "WARN", "WARNING":
		entry.Warn(message)
	case "ERROR":
		entry.Error(message)
	case "FATAL":
		entry.Fatal(message)
	default:
		entry.Info(message)
	}
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}
