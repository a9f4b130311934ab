// Package liveness computes which global and function declarations are
// reachable from the program roots.
package liveness

import (
	"fmt"
	"maps"
	"slices"
)

// Node is one static declaration and the static names it references.
type Node struct {
	Name string
	Refs []string
	// Root is set for exported declarations and interrupt handlers.
	Root bool
}

// Graph is the reference graph of a program. It is built once after
// type checking and consumed by code generation.
type Graph struct {
	nodes map[string]*Node
	order []string
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Add inserts n; names are unique.
func (g *Graph) Add(n Node) {
	if _, ok := g.nodes[n.Name]; ok {
		panic(fmt.Errorf("liveness: %s added twice", n.Name))
	}
	g.nodes[n.Name] = &n
	g.order = append(g.order, n.Name)
}

// Has reports whether name is a node.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Len is the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Set is the result of Solve.
type Set map[string]struct{}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string { return slices.Sorted(maps.Keys(s)) }

// Solve marks the roots plus extra, then unions the references of every
// live node into the live set until nothing changes. Names in extra that
// are not nodes are ignored, as are references to names outside the graph.
func (g *Graph) Solve(extra ...string) Set {
	live := make(Set)
	for _, name := range g.order {
		if g.nodes[name].Root {
			live[name] = struct{}{}
		}
	}
	for _, name := range extra {
		if g.Has(name) {
			live[name] = struct{}{}
		}
	}
	for changed := true; changed; {
		changed = false
		for _, name := range g.order {
			if !live.Has(name) {
				continue
			}
			for _, ref := range g.nodes[name].Refs {
				if g.Has(ref) && !live.Has(ref) {
					live[ref] = struct{}{}
					changed = true
				}
			}
		}
	}
	return live
}
