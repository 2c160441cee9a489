package catalog

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/mattn/go-zglob"
	"golang.org/x/sync/errgroup"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// maxParseWorkers bounds the number of files parsed at once.
const maxParseWorkers = 8

// Dir is a catalog made of every HCL and YAML file below a directory. Files are read in lexical
// order of their paths and parsed concurrently. A file holding a single task labels it after the file name.
type Dir struct {
	cfg  *config
	path string
}

// NewDir returns a catalog reading every catalog file under path.
func NewDir(path string, opts ...Option) *Dir {
	return &Dir{path: path, cfg: newConfig(opts)}
}

// Files returns the catalog files found under the directory, sorted.
func (dir *Dir) Files() ([]string, error) {
	matches, err := zglob.Glob(filepath.Join(dir.path, "**", "*"))
	if err != nil {
		return nil, errors.New(scheduler.CatalogError{Source: dir.path, Err: err})
	}

	files := make([]string, 0, len(matches))

	for _, match := range matches {
		if isCatalogFile(match) {
			files = append(files, match)
		}
	}

	slices.Sort(files)

	return files, nil
}

// Load implements Catalog.
func (dir *Dir) Load(ctx context.Context) ([]*task.Descriptor, error) {
	files, err := dir.Files()
	if err != nil {
		return nil, err
	}

	parsed := make([][]*task.Descriptor, len(files))

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.SetLimit(maxParseWorkers)

	for i, file := range files {
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			descs, err := parseFile(file, dir.cfg)
			if err != nil {
				return err
			}

			parsed[i] = descs

			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}

	var descs []*task.Descriptor
	for _, fileDescs := range parsed {
		descs = append(descs, fileDescs...)
	}

	return descs, nil
}
