package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger: JSON formatted, level from config,
// writing to stdout and, when logDir is set, to firewall.log underneath it.
func NewLogger(level string, logDir string) *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})

	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			logger.WithError(err).Warn("failed to create log directory, logging to stdout only")
			return logger
		}
		file, err := os.OpenFile(filepath.Join(logDir, "firewall.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			logger.WithError(err).Warn("failed to open log file, logging to stdout only")
			return logger
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return logger
}
