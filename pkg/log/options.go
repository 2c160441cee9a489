package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures the logrus logger behind a Logger.
type Option func(*logrus.Logger)

// WithLevel sets the log level.
func WithLevel(level Level) Option {
	return func(l *logrus.Logger) {
		l.SetLevel(level.toLogrus())
	}
}

// WithOutput sets the destination of log entries.
func WithOutput(output io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(output)
	}
}

// WithFormatter sets the formatter used to render entries.
func WithFormatter(formatter Formatter) Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(logrusFormatter{Formatter: formatter})
	}
}
