package composite

import (
	"fmt"
	"slices"
)

// Closure returns the given descriptors plus every composite type they
// reference, transitively, without duplicates.
func Closure(descs ...*Descriptor) []*Descriptor {
	var out []*Descriptor
	seen := make(map[*Descriptor]bool)
	var visit func(d *Descriptor)
	visit = func(d *Descriptor) {
		if d == nil || seen[d] {
			return
		}
		seen[d] = true
		for _, dep := range d.Dependencies() {
			visit(dep)
		}
		out = append(out, d)
	}
	for _, d := range descs {
		visit(d)
	}
	return out
}

// SortByDependencies orders descriptors so that every composite type comes
// after the types its attributes reference, using Kahn's algorithm. Referenced
// types missing from descs are added. Types with no ordering constraint keep
// their relative input order.
//
// Two different declarations sharing a type name are rejected with a
// ConfigurationError; identical declarations are merged.
func SortByDependencies(descs []*Descriptor) ([]*Descriptor, error) {
	all := Closure(descs...)

	byName := make(map[string]*Descriptor, len(all))
	var names []string
	for _, d := range all {
		if existing, ok := byName[d.typeName]; ok {
			if !existing.SameShape(d) {
				return nil, &ConfigurationError{Type: d.typeName, Message: "declared twice with different attributes"}
			}
			continue
		}
		byName[d.typeName] = d
		names = append(names, d.typeName)
	}

	// Keep the caller's order as the tie breaker.
	rank := make(map[string]int, len(names))
	pos := 0
	for _, d := range descs {
		if _, ok := rank[d.typeName]; !ok {
			rank[d.typeName] = pos
			pos++
		}
	}
	for _, name := range names {
		if _, ok := rank[name]; !ok {
			rank[name] = pos
			pos++
		}
	}

	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	for _, name := range names {
		deps := depNames(byName[name])
		inDegree[name] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	sorted := make([]*Descriptor, 0, len(names))
	for len(queue) > 0 {
		slices.SortStableFunc(queue, func(a, b string) int { return rank[a] - rank[b] })
		name := queue[0]
		queue = queue[1:]
		sorted = append(sorted, byName[name])

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(names) {
		return nil, fmt.Errorf("circular dependency between composite types")
	}
	return sorted, nil
}

func depNames(d *Descriptor) []string {
	var out []string
	for _, dep := range d.Dependencies() {
		if !slices.Contains(out, dep.typeName) {
			out = append(out, dep.typeName)
		}
	}
	return out
}
