package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// File is a catalog stored in a single HCL or YAML file. The format is chosen by extension.
//
// A file either lists tasks in blocks:
//
//	task "build" {
//	  run     = "make"
//	  args    = ["build"]
//	  deps    = ["fetch"]
//	  options = { dir = "src", timeout = "10m" }
//	}
//
// or describes a single task with top level attributes, labelled after the file name unless `label` is set.
//
// Instead of `run` and `args`, a task may set `command`, a shell-like command line such as `go test ./...`.
type File struct {
	cfg  *config
	path string
}

// NewFile returns a catalog reading the file at path.
func NewFile(path string, opts ...Option) *File {
	return &File{path: path, cfg: newConfig(opts)}
}

// Load implements Catalog.
func (file *File) Load(_ context.Context) ([]*task.Descriptor, error) {
	return parseFile(file.path, file.cfg)
}

// taskSpec is the format independent shape of one task in a file.
type taskSpec struct {
	Label   *string           `yaml:"label"`
	Run     *string           `yaml:"run"`
	Command *string           `yaml:"command"`
	Options map[string]string `yaml:"options"`
	Args    []string          `yaml:"args"`
	Deps    []string          `yaml:"deps"`
}

// defined returns true if the task names something to run.
func (spec *taskSpec) defined() bool {
	return spec.Run != nil || spec.Command != nil
}

func (spec *taskSpec) descriptor(label string) (*task.Descriptor, error) {
	desc := &task.Descriptor{
		Label:   label,
		Args:    spec.Args,
		Deps:    spec.Deps,
		Options: spec.Options,
	}

	if spec.Label != nil && *spec.Label != "" {
		desc.Label = *spec.Label
	}

	if spec.Run != nil {
		desc.Runnable = *spec.Run
	}

	if spec.Command == nil {
		return desc, nil
	}

	if spec.Run != nil || len(spec.Args) > 0 {
		return nil, errors.Errorf("task %q: command cannot be combined with run or args", desc.Label)
	}

	words, err := shlex.Split(*spec.Command)
	if err != nil {
		return nil, errors.Errorf("task %q: parse command: %w", desc.Label, err)
	}

	if len(words) > 0 {
		desc.Runnable, desc.Args = words[0], words[1:]
	}

	return desc, nil
}

func parseFile(path string, cfg *config) ([]*task.Descriptor, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(scheduler.CatalogError{Source: path, Err: err})
	}

	var descs []*task.Descriptor

	switch strings.ToLower(filepath.Ext(path)) {
	case hclExt:
		descs, err = parseHCL(path, src, cfg)
	case yamlExt, ymlExt:
		descs, err = parseYAML(path, src)
	default:
		return nil, errors.New(scheduler.CatalogError{Source: path, Reason: "unsupported file extension, expected .hcl, .yaml or .yml"})
	}

	if err != nil {
		return nil, errors.New(scheduler.CatalogError{Source: path, Err: err})
	}

	for i, desc := range descs {
		if desc.Runnable == "" {
			return nil, errors.New(scheduler.CatalogError{Source: path, Label: desc.Label, Reason: "missing run or command attribute"})
		}

		if desc.Label == "" {
			desc.Label = task.DefaultLabel(i)
		}
	}

	return descs, nil
}
