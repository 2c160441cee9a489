package telemetry

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// attributes converts attrs to otel attributes, ordered by key.
func attributes(attrs map[string]any) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))

	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		switch val := attrs[key].(type) {
		case string:
			kvs = append(kvs, attribute.String(key, val))
		case bool:
			kvs = append(kvs, attribute.Bool(key, val))
		case int:
			kvs = append(kvs, attribute.Int(key, val))
		case int64:
			kvs = append(kvs, attribute.Int64(key, val))
		case float64:
			kvs = append(kvs, attribute.Float64(key, val))
		case time.Duration:
			kvs = append(kvs, attribute.Int64(key, val.Milliseconds()))
		case []string:
			kvs = append(kvs, attribute.StringSlice(key, val))
		default:
			kvs = append(kvs, attribute.String(key, fmt.Sprint(val)))
		}
	}

	return kvs
}

// CleanMetricName replaces every run of characters not allowed in a metric name with a single underscore
// and trims underscores at both ends.
func CleanMetricName(name string) string {
	var sb strings.Builder

	underscore := false

	for _, r := range name {
		if !validMetricRune(r) {
			r = '_'
		}

		if r == '_' {
			if underscore {
				continue
			}

			underscore = true
		} else {
			underscore = false
		}

		sb.WriteRune(r)
	}

	return strings.Trim(sb.String(), "_")
}

func validMetricRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}

	return strings.ContainsRune("_.-/", r)
}
