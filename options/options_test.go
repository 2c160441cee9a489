package options_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/options"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		modify      func(opts *options.TaskgruntOptions)
		name        string
		expectedErr string
	}{
		{name: "defaults", modify: func(*options.TaskgruntOptions) {}},
		{
			name: "distributed memory store",
			modify: func(opts *options.TaskgruntOptions) {
				opts.Backend = options.BackendDistributed
				opts.Store = options.StoreMemory
			},
		},
		{
			name:        "unknown backend",
			modify:      func(opts *options.TaskgruntOptions) { opts.Backend = "cloud" },
			expectedErr: `unsupported backend "cloud"`,
		},
		{
			name:        "unknown store",
			modify:      func(opts *options.TaskgruntOptions) { opts.Store = "etcd" },
			expectedErr: `unsupported store "etcd"`,
		},
		{
			name:        "unknown report format",
			modify:      func(opts *options.TaskgruntOptions) { opts.ReportFormat = "xml" },
			expectedErr: `unsupported report format "xml"`,
		},
		{
			name:        "no parallelism",
			modify:      func(opts *options.TaskgruntOptions) { opts.Parallelism = 0 },
			expectedErr: "parallelism must be a positive number",
		},
		{
			name:        "no workers",
			modify:      func(opts *options.TaskgruntOptions) { opts.WorkerCount = -1 },
			expectedErr: "worker count must be a positive number",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := options.NewTaskgruntOptionsWithWriters(&bytes.Buffer{}, &bytes.Buffer{})
			tc.modify(opts)

			err := opts.Validate()
			if tc.expectedErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	t.Parallel()

	stderr := &bytes.Buffer{}
	opts := options.NewTaskgruntOptionsWithWriters(&bytes.Buffer{}, stderr)
	opts.LogFormat = options.LogFormatJSON
	opts.LogLevel = log.DebugLevel

	opts.ConfigureLogger()
	opts.Logger.Debugf("dispatching %s", "build")

	assert.Contains(t, stderr.String(), `"msg":"dispatching build"`)
}

func TestResolveCatalogPath(t *testing.T) {
	t.Parallel()

	opts := options.NewTaskgruntOptions()

	_, err := opts.ResolveCatalogPath()
	require.Error(t, err)

	opts.CatalogPath = "tasks.hcl"
	path, err := opts.ResolveCatalogPath()
	require.NoError(t, err)
	assert.Equal(t, "tasks.hcl", path)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	opts.CatalogPath = "~/tasks.hcl"
	path, err = opts.ResolveCatalogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tasks.hcl"), path)
}
