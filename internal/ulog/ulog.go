// Package ulog is the single logging sink for uppm's core. Components log
// conflicts and warnings through here instead of writing to stdout directly,
// so a caller embedding uppm can redirect or silence it.
package ulog

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Level:           log.InfoLevel,
	ReportTimestamp: false,
})

// SetVerbose toggles debug-level output, mirroring the teacher's -v flag.
func SetVerbose(v bool) {
	if v {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }

// With returns a child logger tagged with the given key/value pairs, used to
// scope conflict/warning logs to the package reference that produced them.
func With(keyvals ...interface{}) *log.Logger {
	return logger.With(keyvals...)
}
