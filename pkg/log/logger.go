package log

import (
	"github.com/sirupsen/logrus"
)

// Logger is a leveled logger with structured fields, backed by logrus.
type Logger interface {
	// Level returns the log level.
	Level() Level

	// SetLevel parses and sets the log level.
	SetLevel(str string) error

	// WithField returns a logger adding key to every entry.
	WithField(key string, value any) Logger

	// WithFields returns a logger adding fields to every entry.
	WithFields(fields Fields) Logger

	// WithError returns a logger adding err as the `error` field.
	WithError(err error) Logger

	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type logger struct {
	entry *logrus.Entry
}

// New returns a logger writing text entries at InfoLevel to stderr, unless opts say otherwise.
func New(opts ...Option) Logger {
	base := logrus.New()
	base.SetLevel(InfoLevel.toLogrus())
	base.SetFormatter(logrusFormatter{Formatter: NewTextFormatter()})

	for _, opt := range opts {
		opt(base)
	}

	return &logger{entry: logrus.NewEntry(base)}
}

func (l *logger) Level() Level {
	return fromLogrus(l.entry.Logger.GetLevel())
}

func (l *logger) SetLevel(str string) error {
	level, err := ParseLevel(str)
	if err != nil {
		return err
	}

	l.entry.Logger.SetLevel(level.toLogrus())

	return nil
}

func (l *logger) WithField(key string, value any) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logger) WithError(err error) Logger {
	return &logger{entry: l.entry.WithError(err)}
}

func (l *logger) Tracef(format string, args ...any) { l.logf(TraceLevel, format, args...) }
func (l *logger) Debugf(format string, args ...any) { l.logf(DebugLevel, format, args...) }
func (l *logger) Infof(format string, args ...any)  { l.logf(InfoLevel, format, args...) }
func (l *logger) Warnf(format string, args ...any)  { l.logf(WarnLevel, format, args...) }
func (l *logger) Errorf(format string, args ...any) { l.logf(ErrorLevel, format, args...) }

func (l *logger) Trace(args ...any) { l.log(TraceLevel, args...) }
func (l *logger) Debug(args ...any) { l.log(DebugLevel, args...) }
func (l *logger) Info(args ...any)  { l.log(InfoLevel, args...) }
func (l *logger) Warn(args ...any)  { l.log(WarnLevel, args...) }
func (l *logger) Error(args ...any) { l.log(ErrorLevel, args...) }

func (l *logger) logf(level Level, format string, args ...any) {
	l.entry.Logf(level.toLogrus(), format, args...)
}

func (l *logger) log(level Level, args ...any) {
	l.entry.Log(level.toLogrus(), args...)
}
