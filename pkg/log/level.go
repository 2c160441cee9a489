package log

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

// Level is the severity of an entry. Each level also shows the entries of the levels before it.
type Level uint32

const (
	// ErrorLevel shows run failures only.
	ErrorLevel Level = iota
	// WarnLevel adds problems taskgrunt recovered from, such as a failed report write.
	WarnLevel
	// InfoLevel adds the start and the outcome of every task.
	InfoLevel
	// DebugLevel adds dispatch decisions, backend and store activity.
	DebugLevel
	// TraceLevel adds every signal and every store poll.
	TraceLevel
)

// AllLevels lists the accepted levels, least verbose first.
var AllLevels = Levels{ErrorLevel, WarnLevel, InfoLevel, DebugLevel, TraceLevel}

var levelTable = [...]struct {
	name   string
	logrus logrus.Level
}{
	ErrorLevel: {"error", logrus.ErrorLevel},
	WarnLevel:  {"warn", logrus.WarnLevel},
	InfoLevel:  {"info", logrus.InfoLevel},
	DebugLevel: {"debug", logrus.DebugLevel},
	TraceLevel: {"trace", logrus.TraceLevel},
}

// ParseLevel returns the level named str, case insensitive.
func ParseLevel(str string) (Level, error) {
	for _, level := range AllLevels {
		if strings.EqualFold(level.String(), str) {
			return level, nil
		}
	}

	return ErrorLevel, errors.Errorf("invalid log level %q, supported levels: %s", str, AllLevels)
}

func (level Level) String() string {
	if int(level) < len(levelTable) {
		return levelTable[level].name
	}

	return ""
}

func (level Level) toLogrus() logrus.Level {
	if int(level) < len(levelTable) {
		return levelTable[level].logrus
	}

	return logrus.InfoLevel
}

// fromLogrus maps the logrus levels above ErrorLevel, panic and fatal, to ErrorLevel.
func fromLogrus(lvl logrus.Level) Level {
	for _, level := range AllLevels {
		if level.toLogrus() == lvl {
			return level
		}
	}

	return ErrorLevel
}

// Levels is a list of levels.
type Levels []Level

func (levels Levels) String() string {
	names := make([]string, len(levels))
	for i, level := range levels {
		names[i] = level.String()
	}

	return strings.Join(names, ", ")
}
