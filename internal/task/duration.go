package task

import (
	"strconv"
	"strings"
	"time"
)

// HumanDuration formats d as minutes, seconds and milliseconds, omitting zero parts, e.g. `1 min 2 sec 30 ms`.
func HumanDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms <= 0 {
		return "0 ms"
	}

	var parts []string

	if m := ms / int64(time.Minute/time.Millisecond); m > 0 {
		parts = append(parts, strconv.FormatInt(m, 10)+" min")
	}

	if s := (ms % int64(time.Minute/time.Millisecond)) / int64(time.Second/time.Millisecond); s > 0 {
		parts = append(parts, strconv.FormatInt(s, 10)+" sec")
	}

	if rest := ms % int64(time.Second/time.Millisecond); rest > 0 {
		parts = append(parts, strconv.FormatInt(rest, 10)+" ms")
	}

	return strings.Join(parts, " ")
}
