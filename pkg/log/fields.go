package log

import (
	"maps"
	"slices"
)

// Keys of the fields set by taskgrunt.
const (
	FieldKeyRunID  = "run_id"
	FieldKeyTask   = "task"
	FieldKeyWorker = "worker"
)

// Keys of the JSON entry itself. Fields with these names are renamed with a "fields." prefix.
const (
	entryKeyMsg   = "msg"
	entryKeyLevel = "level"
	entryKeyTime  = "time"
)

// Fields are the structured values attached to an entry.
type Fields map[string]any

// sortedKeys returns the keys of fields in order, without the excluded ones.
func (fields Fields) sortedKeys(exclude ...string) []string {
	keys := slices.Sorted(maps.Keys(fields))

	return slices.DeleteFunc(keys, func(key string) bool {
		return slices.Contains(exclude, key)
	})
}
