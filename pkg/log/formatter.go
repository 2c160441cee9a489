package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

const defaultTimestampFormat = "15:04:05.000"

// Entry is a log entry handed to a Formatter.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Fields  Fields
}

// Formatter renders an entry.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// logrusFormatter adapts a Formatter to logrus.
type logrusFormatter struct {
	Formatter
}

func (f logrusFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.Formatter.Format(&Entry{
		Time:    entry.Time,
		Level:   fromLogrus(entry.Level),
		Message: entry.Message,
		Fields:  Fields(entry.Data),
	})
}

// TextFormatter renders entries as a single human readable line:
//
//	15:04:05.000 INFO   [build] message worker=w1 run_id=...
type TextFormatter struct {
	palette         *palette
	timestampFormat string
}

// NewTextFormatter returns a colored text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		palette:         newPalette(),
		timestampFormat: defaultTimestampFormat,
	}
}

// DisableColors turns off ANSI colors.
func (f *TextFormatter) DisableColors() *TextFormatter {
	f.palette = nil
	return f
}

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	buf := new(bytes.Buffer)

	buf.WriteString(f.palette.time()(entry.Time.Format(f.timestampFormat)))
	buf.WriteByte(' ')
	buf.WriteString(f.palette.level(entry.Level)(fmt.Sprintf("%-6s", strings.ToUpper(entry.Level.String()))))
	buf.WriteByte(' ')

	if task, ok := entry.Fields[FieldKeyTask]; ok {
		fmt.Fprintf(buf, "[%s] ", f.palette.field(FieldKeyTask)(fmt.Sprint(task)))
	}

	buf.WriteString(entry.Message)

	for _, key := range entry.Fields.sortedKeys(FieldKeyTask) {
		fmt.Fprintf(buf, " %s=%s", key, f.palette.field(key)(fmt.Sprint(entry.Fields[key])))
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct{}

// NewJSONFormatter returns a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]any, len(entry.Fields)+3)

	for key, val := range entry.Fields {
		if err, ok := val.(error); ok {
			val = err.Error()
		}

		switch key {
		case entryKeyMsg, entryKeyLevel, entryKeyTime:
			key = "fields." + key
		}

		data[key] = val
	}

	data[entryKeyTime] = entry.Time.Format(time.RFC3339Nano)
	data[entryKeyLevel] = entry.Level.String()
	data[entryKeyMsg] = entry.Message

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}

	return append(out, '\n'), nil
}

// IsTerminal returns true if the given writer is a terminal, used to decide whether to emit colors.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
