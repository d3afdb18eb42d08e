package operation

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrMissingDependency is returned by Plan when an operation requires a
	// type that no operation provides.
	ErrMissingDependency = errors.New("missing composite type dependency")
	// ErrDuplicateProvider is returned by Plan when two operations create the same type.
	ErrDuplicateProvider = errors.New("composite type created twice")
	// ErrCyclicDependency is returned by Plan when operations depend on each other.
	ErrCyclicDependency = errors.New("cyclic composite type dependency")
)

// Plan orders ops so that every operation comes after the operations
// providing the types it requires. Operations without an ordering constraint
// keep their relative order.
func Plan(ops ...Operation) ([]Operation, error) {
	provider := make(map[string]int)
	for i, op := range ops {
		for _, name := range op.Provides() {
			if j, ok := provider[name]; ok {
				return nil, fmt.Errorf("%w: %s (%q and %q)", ErrDuplicateProvider, name, ops[j].Describe(), op.Describe())
			}
			provider[name] = i
		}
	}

	// edges[i] are the operations that must run after ops[i]
	edges := make([][]int, len(ops))
	inDegree := make([]int, len(ops))
	for i, op := range ops {
		for _, name := range op.Requires() {
			j, ok := provider[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q requires type %s", ErrMissingDependency, op.Describe(), name)
			}
			if j == i || slices.Contains(edges[j], i) {
				continue
			}
			edges[j] = append(edges[j], i)
			inDegree[i]++
		}
	}

	var ready []int
	for i := range ops {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	planned := make([]Operation, 0, len(ops))
	for len(ready) > 0 {
		slices.Sort(ready)
		i := ready[0]
		ready = ready[1:]
		planned = append(planned, ops[i])
		for _, next := range edges[i] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(planned) != len(ops) {
		var stuck []string
		for i, op := range ops {
			if inDegree[i] > 0 {
				stuck = append(stuck, op.Describe())
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrCyclicDependency, stuck)
	}
	return planned, nil
}
