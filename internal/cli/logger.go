package cli

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the application logger.
// The level comes from LOG_LEVEL when set and valid, otherwise info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	level := logrus.InfoLevel
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = lvl
	}
	log.SetLevel(level)

	return log
}

// SetVerbose switches the logger to debug level
func SetVerbose(log *logrus.Logger, verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
}
