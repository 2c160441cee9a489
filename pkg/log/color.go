package log

import (
	"github.com/mgutz/ansi"
)

type colorFunc func(string) string

func plain(s string) string { return s }

// palette holds the ANSI styles of the text formatter.
type palette struct {
	levels    map[Level]colorFunc
	fields    map[string]colorFunc
	timestamp colorFunc
}

func newPalette() *palette {
	return &palette{
		levels: map[Level]colorFunc{
			ErrorLevel: ansi.ColorFunc("red+b"),
			WarnLevel:  ansi.ColorFunc("yellow"),
			InfoLevel:  ansi.ColorFunc("green"),
			DebugLevel: ansi.ColorFunc("blue+h"),
			TraceLevel: ansi.ColorFunc("white"),
		},
		fields: map[string]colorFunc{
			FieldKeyTask:   ansi.ColorFunc("cyan"),
			FieldKeyWorker: ansi.ColorFunc("magenta"),
			FieldKeyRunID:  ansi.ColorFunc("black+h"),
		},
		timestamp: ansi.ColorFunc("black+h"),
	}
}

// level returns the style of level. A nil palette leaves the text unstyled.
func (p *palette) level(level Level) colorFunc {
	if p == nil {
		return plain
	}

	if fn, ok := p.levels[level]; ok {
		return fn
	}

	return plain
}

func (p *palette) field(key string) colorFunc {
	if p == nil {
		return plain
	}

	if fn, ok := p.fields[key]; ok {
		return fn
	}

	return plain
}

func (p *palette) time() colorFunc {
	if p == nil {
		return plain
	}

	return p.timestamp
}
