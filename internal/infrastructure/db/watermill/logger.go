package watermilldb

import (
	"github.com/ThreeDotsLabs/watermill"
	log "github.com/sirupsen/logrus"
)

type logrusAdapter struct {
	entry *log.Entry
}

func newLogrusAdapter() watermill.LoggerAdapter {
	return &logrusAdapter{log.WithField("component", "watermill")}
}

func (l *logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.entry.WithError(err).WithFields(log.Fields(fields)).Error(msg)
}

func (l *logrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.entry.WithFields(log.Fields(fields)).Info(msg)
}

func (l *logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.entry.WithFields(log.Fields(fields)).Debug(msg)
}

func (l *logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.entry.WithFields(log.Fields(fields)).Trace(msg)
}

func (l *logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &logrusAdapter{l.entry.WithFields(log.Fields(fields))}
}
