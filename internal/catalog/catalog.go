// Package catalog loads task descriptors. A catalog is either a static list built in code, a single HCL or
// YAML file, or a directory tree of such files.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

const (
	hclExt  = ".hcl"
	yamlExt = ".yaml"
	ymlExt  = ".yml"
)

// Catalog supplies the descriptors of a run.
type Catalog interface {
	Load(ctx context.Context) ([]*task.Descriptor, error)
}

// Static is a catalog of descriptors built in code. Descriptors without a label get `task_<index>`.
type Static []*task.Descriptor

// Load implements Catalog. It returns copies, so the scheduler never shares state with the caller.
func (static Static) Load(_ context.Context) ([]*task.Descriptor, error) {
	descs := make([]*task.Descriptor, len(static))

	for i, desc := range static {
		if desc == nil {
			return nil, errors.New(scheduler.CatalogError{Reason: "nil descriptor at " + task.DefaultLabel(i)})
		}

		descs[i] = desc.Clone()
		if descs[i].Label == "" {
			descs[i].Label = task.DefaultLabel(i)
		}
	}

	return descs, nil
}

// FromPath returns a Dir catalog for a directory and a File catalog otherwise.
func FromPath(path string, opts ...Option) (Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(scheduler.CatalogError{Source: path, Err: err})
	}

	if info.IsDir() {
		return NewDir(path, opts...), nil
	}

	return NewFile(path, opts...), nil
}

// Option configures file and directory catalogs.
type Option func(*config)

type config struct {
	env map[string]string
}

// WithEnv sets the variables visible as `env.NAME` in HCL files. Defaults to the process environment.
func WithEnv(env map[string]string) Option {
	return func(cfg *config) {
		cfg.env = env
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.env == nil {
		cfg.env = environ()
	}

	return cfg
}

func environ() map[string]string {
	env := make(map[string]string)

	for _, pair := range os.Environ() {
		if name, val, ok := strings.Cut(pair, "="); ok && name != "" {
			env[name] = val
		}
	}

	return env
}

// defaultFileLabel returns the label of a task defined by a whole file: its base name without extension.
func defaultFileLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case hclExt, yamlExt, ymlExt:
		return true
	}

	return false
}
