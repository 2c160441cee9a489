package catalog

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/gruntwork-io/taskgrunt/internal/task"
)

type hclTaskBlock struct {
	Run     *string           `hcl:"run,optional"`
	Command *string           `hcl:"command,optional"`
	Options map[string]string `hcl:"options,optional"`
	Name    string            `hcl:"name,label"`
	Args    []string          `hcl:"args,optional"`
	Deps    []string          `hcl:"deps,optional"`
}

// hclFile decodes both the block form and the single task form.
type hclFile struct {
	Label   *string           `hcl:"label,optional"`
	Run     *string           `hcl:"run,optional"`
	Command *string           `hcl:"command,optional"`
	Options map[string]string `hcl:"options,optional"`
	Tasks   []*hclTaskBlock   `hcl:"task,block"`
	Args    []string          `hcl:"args,optional"`
	Deps    []string          `hcl:"deps,optional"`
}

func parseHCL(path string, src []byte, cfg *config) ([]*task.Descriptor, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, diags
	}

	var root hclFile

	if diags := gohcl.DecodeBody(file.Body, evalContext(cfg), &root); diags.HasErrors() {
		return nil, diags
	}

	var descs []*task.Descriptor

	single := &taskSpec{Label: root.Label, Run: root.Run, Command: root.Command, Options: root.Options, Args: root.Args, Deps: root.Deps}
	if single.defined() {
		desc, err := single.descriptor(defaultFileLabel(path))
		if err != nil {
			return nil, err
		}

		descs = append(descs, desc)
	}

	for _, block := range root.Tasks {
		spec := &taskSpec{Run: block.Run, Command: block.Command, Options: block.Options, Args: block.Args, Deps: block.Deps}

		desc, err := spec.descriptor(block.Name)
		if err != nil {
			return nil, err
		}

		descs = append(descs, desc)
	}

	return descs, nil
}

// evalContext exposes the environment as the `env` object.
func evalContext(cfg *config) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(cfg.env))
	for name, val := range cfg.env {
		env[name] = cty.StringVal(val)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}
