package flags

import (
	"strings"
)

const TgPrefix = "TG"

// Prefix builds environment variable names from flag names.
type Prefix []string

// EnvVar returns the environment variable of a flag, e.g. `log-level` becomes `TG_LOG_LEVEL`.
func (prefix Prefix) EnvVar(name string) string {
	name = strings.Join(append(prefix, name), "_")

	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// EnvVars returns the environment variables of the given flags.
func (prefix Prefix) EnvVars(names ...string) []string {
	envVars := make([]string, len(names))

	for i := range names {
		envVars[i] = prefix.EnvVar(names[i])
	}

	return envVars
}
