package catalog

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

type yamlFile struct {
	taskSpec `yaml:",inline"`
	Tasks    []*taskSpec `yaml:"tasks"`
}

func parseYAML(path string, src []byte) ([]*task.Descriptor, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, errors.New("file is empty")
	}

	var root yamlFile

	decoder := yaml.NewDecoder(bytes.NewReader(src))
	decoder.KnownFields(true)

	if err := decoder.Decode(&root); err != nil {
		return nil, errors.Errorf("decode: %w", err)
	}

	var descs []*task.Descriptor

	if root.defined() {
		desc, err := root.descriptor(defaultFileLabel(path))
		if err != nil {
			return nil, err
		}

		descs = append(descs, desc)
	}

	for _, spec := range root.Tasks {
		if spec == nil {
			continue
		}

		desc, err := spec.descriptor("")
		if err != nil {
			return nil, err
		}

		descs = append(descs, desc)
	}

	return descs, nil
}
