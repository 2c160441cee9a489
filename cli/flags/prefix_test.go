package flags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gruntwork-io/taskgrunt/cli/flags"
)

func TestPrefixEnvVars(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		prefix   flags.Prefix
		names    []string
		expected []string
	}{
		{flags.Prefix{flags.TgPrefix}, []string{"log-level"}, []string{"TG_LOG_LEVEL"}},
		{flags.Prefix{flags.TgPrefix}, []string{"redis-addr", "workers"}, []string{"TG_REDIS_ADDR", "TG_WORKERS"}},
		{flags.Prefix{flags.TgPrefix, "telemetry"}, []string{"trace-exporter"}, []string{"TG_TELEMETRY_TRACE_EXPORTER"}},
		{flags.Prefix{}, []string{"drain"}, []string{"DRAIN"}},
	}

	for _, tc := range testCases {
		t.Run(tc.expected[0], func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, tc.prefix.EnvVars(tc.names...))
		})
	}
}
