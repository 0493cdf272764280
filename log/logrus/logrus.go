// Package logrus adapts a *logrus.Entry to blobcontainer.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/blobcontainer"
)

var _ blobcontainer.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "blobcontainer")}
}

func (l LogrusLogger) Debug(msg string, f blobcontainer.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f blobcontainer.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f blobcontainer.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f blobcontainer.Fields) { l.with(f).Error(msg) }

// with lifts an "err" field to logrus' own error key.
func (l LogrusLogger) with(f blobcontainer.Fields) *logrus.Entry {
	e := l.E
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		e = e.WithField(k, v)
	}
	return e
}
