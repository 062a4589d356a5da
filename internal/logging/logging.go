package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelNone
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	SetLevel(LevelWarning)
}

func SetLevel(l Level) {
	log.SetOutput(os.Stderr)
	switch l {
	case LevelDebug:
		log.SetLevel(logrus.DebugLevel)
	case LevelInfo:
		log.SetLevel(logrus.InfoLevel)
	case LevelWarning:
		log.SetLevel(logrus.WarnLevel)
	case LevelError:
		log.SetLevel(logrus.ErrorLevel)
	case LevelNone:
		log.SetOutput(io.Discard)
	}
}

// DebugEnabled tells if debug messages are written.
func DebugEnabled() bool {
	return log.IsLevelEnabled(logrus.DebugLevel) && log.Out != io.Discard
}

// WithField returns an entry that carries the given key/value pair
// in every message logged through it.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func Debug(msg string, v ...interface{}) {
	log.Debugf(msg, v...)
}

func Info(msg string, v ...interface{}) {
	log.Infof(msg, v...)
}

func Warning(msg string, v ...interface{}) {
	log.Warnf(msg, v...)
}

func Error(msg string, v ...interface{}) {
	log.Errorf(msg, v...)
}
