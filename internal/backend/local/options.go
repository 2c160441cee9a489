package local

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

const envOptionPrefix = "env."

// ProcessOptions are the per-task options understood by the local backend.
//
//	dir     = "build"   working directory of the process
//	timeout = "5m"      the task fails if the process runs longer
//	env.FOO = "bar"     extra environment variables
type ProcessOptions struct {
	Env     map[string]string `mapstructure:",remain"`
	Dir     string            `mapstructure:"dir"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

// ParseProcessOptions decodes the descriptor options. Keys other than `dir`, `timeout` and `env.*` are rejected.
func ParseProcessOptions(opts map[string]string) (*ProcessOptions, error) {
	var parsed ProcessOptions

	raw := make(map[string]any, len(opts))
	for key, val := range opts {
		raw[key] = val
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &parsed,
	})
	if err != nil {
		return nil, errors.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Errorf("failed to decode process options: %w", err)
	}

	env := make(map[string]string, len(parsed.Env))

	for _, key := range slices.Sorted(maps.Keys(parsed.Env)) {
		name, ok := strings.CutPrefix(key, envOptionPrefix)
		if !ok || name == "" {
			return nil, errors.New(UnknownOptionError{Name: key})
		}

		env[name] = parsed.Env[key]
	}

	parsed.Env = env

	if parsed.Timeout < 0 {
		return nil, errors.Errorf("timeout must not be negative, got %s", parsed.Timeout)
	}

	return &parsed, nil
}

// Environ returns the current environment extended with the `env.*` options, in a stable order.
func (opts *ProcessOptions) Environ(base []string) []string {
	if len(opts.Env) == 0 {
		return nil
	}

	env := slices.Clone(base)

	for _, name := range slices.Sorted(maps.Keys(opts.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", name, opts.Env[name]))
	}

	return env
}
