package scheduler

import (
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// CheckLabels rejects empty and duplicate labels.
func CheckLabels(descs []*task.Descriptor) error {
	seen := make(map[string]struct{}, len(descs))

	for i, desc := range descs {
		if desc == nil {
			return errors.New(CatalogError{Reason: "nil descriptor at index " + task.DefaultLabel(i)})
		}

		if desc.Label == "" {
			return errors.New(CatalogError{Reason: "empty label for " + task.DefaultLabel(i)})
		}

		if _, ok := seen[desc.Label]; ok {
			return errors.New(CatalogError{Label: desc.Label, Reason: "duplicate label"})
		}

		seen[desc.Label] = struct{}{}
	}

	return nil
}

// Validate checks the descriptors before anything runs: labels must be unique, every dependency must name a
// task of the run and the dependency graph must be acyclic.
func Validate(descs []*task.Descriptor) error {
	if err := CheckLabels(descs); err != nil {
		return err
	}

	index := make(map[string]int, len(descs))
	for i, desc := range descs {
		index[desc.Label] = i
	}

	// dependents[i] lists the tasks that depend on task i, unmet[i] counts the dependencies of task i.
	dependents := make([][]int, len(descs))
	unmet := make([]int, len(descs))

	for i, desc := range descs {
		for _, dep := range desc.Deps {
			j, ok := index[dep]
			if !ok {
				return errors.New(MissingDependencyError{Label: desc.Label, Dependency: dep})
			}

			dependents[j] = append(dependents[j], i)
			unmet[i]++
		}
	}

	ready := make([]int, 0, len(descs))

	for i := range descs {
		if unmet[i] == 0 {
			ready = append(ready, i)
		}
	}

	visited := 0

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		visited++

		for _, j := range dependents[i] {
			unmet[j]--
			if unmet[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if visited == len(descs) {
		return nil
	}

	var stuck []string

	for i, desc := range descs {
		if unmet[i] > 0 {
			stuck = append(stuck, desc.Label)
		}
	}

	return errors.New(DeadlockDetectedError{Labels: stuck, Cycle: findCycle(descs, index)})
}

// findCycle walks the dependency edges depth first in input order and returns the first cycle found,
// as a path that starts and ends on the same label.
func findCycle(descs []*task.Descriptor, index map[string]int) []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(descs))
	parent := make([]int, len(descs))

	for i := range parent {
		parent[i] = -1
	}

	var cycle []int

	var dfs func(u int) bool

	dfs = func(u int) bool {
		color[u] = gray

		for _, dep := range descs[u].Deps {
			v := index[dep]

			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// back edge u -> v, walk the parents from u back to v
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}

				cycle = append(cycle, v)

				return true
			}
		}

		color[u] = black

		return false
	}

	for i := range descs {
		if color[i] == white && dfs(i) {
			break
		}
	}

	// cycle is [v, u, parent(u), ..., v] along dependency edges reversed; flip it so every
	// label is followed by one of its dependencies.
	path := make([]string, len(cycle))
	for i, idx := range cycle {
		path[len(cycle)-1-i] = descs[idx].Label
	}

	return path
}
