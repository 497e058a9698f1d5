package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const logFileMode = 0o600

// NewLogger builds the JSON logger every component logs through. Logs go to
// file when one is given and to fallback otherwise, so command output on
// stdout stays clean. The returned func closes the log file.
func NewLogger(level string, file string, fallback io.Writer) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetLevel(ParseLevel(level))

	closer := func() error { return nil }
	switch {
	case strings.TrimSpace(file) != "":
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f.Close
	case fallback != nil:
		logger.SetOutput(fallback)
	default:
		logger.SetOutput(io.Discard)
	}

	return logger, closer, nil
}

// ParseLevel maps a config value to a logrus level. Unknown values fall back
// to warn.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "off", "none":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}
