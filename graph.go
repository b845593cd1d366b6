// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lensflare

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Pass is one unit of frame work.
//
// A pass declares every resource it reads and writes. A pass that lists a
// resource in both is a read-modify-write of it. The session derives the
// execution order from these declarations alone.
type Pass interface {
	Name() string
	Reads() []Resource
	Writes() []Resource
	Execute(ctx context.Context, s *Session) error
}

// asyncPass is implemented by passes whose writes are only visible after
// the session waits on their fence.
type asyncPass interface {
	Async() bool
}

// skipper is implemented by passes that have nothing to do in some
// configurations, such as a lens without ghosts.
type skipper interface {
	Skip(s *Session) bool
}

func isAsync(p Pass) bool {
	a, ok := p.(asyncPass)
	return ok && a.Async()
}

// StepKind distinguishes plan steps.
type StepKind int

// Step kinds.
const (
	StepPass StepKind = iota
	StepBarrier
)

// Step is one entry of a compiled plan.
type Step struct {
	Kind StepKind

	// Name is the pass name. For a barrier it is the asynchronous pass
	// being waited on.
	Name string

	// Resource is the resource a barrier makes visible.
	Resource Resource

	pass Pass
}

func (s Step) String() string {
	if s.Kind == StepBarrier {
		return fmt.Sprintf("barrier(%s:%s)", s.Name, s.Resource)
	}
	return s.Name
}

// Plan is the compiled, ordered list of steps of a frame.
type Plan []Step

func (p Plan) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// Passes returns the pass names in execution order, without barriers.
func (p Plan) Passes() []string {
	var names []string
	for _, s := range p {
		if s.Kind == StepPass {
			names = append(names, s.Name)
		}
	}
	return names
}

// compile orders passes and inserts barriers.
//
// For every resource the order is: the pass that creates it (writes
// without reading), then passes that modify it in registration order,
// then passes that only read it. Ties between ready passes go to
// asynchronous passes first so their work overlaps with what follows,
// then to passes that need no barrier, then to registration order.
func compile(passes []Pass) (Plan, error) {
	n := len(passes)
	succ := make([]map[int]bool, n)
	indeg := make([]int, n)
	addEdge := func(from, to int) {
		if from == to || succ[from][to] {
			return
		}
		if succ[from] == nil {
			succ[from] = make(map[int]bool)
		}
		succ[from][to] = true
		indeg[to]++
	}

	// lastWriter[r] is the pass whose output readers of r observe.
	lastWriter := make(map[Resource]int)
	for _, r := range resourcesOf(passes) {
		var creators, modifiers, readers []int
		for i, p := range passes {
			reads, writes := slices.Contains(p.Reads(), r), slices.Contains(p.Writes(), r)
			switch {
			case writes && !reads:
				creators = append(creators, i)
			case writes && reads:
				modifiers = append(modifiers, i)
			case reads:
				readers = append(readers, i)
			}
		}
		if len(creators) > 1 {
			return nil, fmt.Errorf("%w: %s is created by %s and %s",
				ErrGraphConflict, r, passes[creators[0]].Name(), passes[creators[1]].Name())
		}

		chain := append(creators, modifiers...)
		for i := 1; i < len(chain); i++ {
			addEdge(chain[i-1], chain[i])
		}
		if len(chain) > 0 {
			last := chain[len(chain)-1]
			lastWriter[r] = last
			for _, rd := range readers {
				addEdge(last, rd)
			}
		}
	}

	// needsBarrier reports whether p reads the output of an async pass.
	needsBarrier := func(i int) bool {
		for _, r := range passes[i].Reads() {
			if w, ok := lastWriter[r]; ok && w != i && isAsync(passes[w]) {
				return true
			}
		}
		return false
	}
	better := func(a, b int) bool {
		if aa, ab := isAsync(passes[a]), isAsync(passes[b]); aa != ab {
			return aa
		}
		if ba, bb := needsBarrier(a), needsBarrier(b); ba != bb {
			return !ba
		}
		return a < b
	}

	var ready []int
	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	plan := make(Plan, 0, n+2)
	pending := make(map[int]bool) // async passes not yet waited on
	done := 0
	for len(ready) > 0 {
		best := 0
		for k := 1; k < len(ready); k++ {
			if better(ready[k], ready[best]) {
				best = k
			}
		}
		i := ready[best]
		ready = append(ready[:best], ready[best+1:]...)

		for _, r := range passes[i].Reads() {
			w, ok := lastWriter[r]
			if ok && w != i && pending[w] {
				plan = append(plan, Step{Kind: StepBarrier, Name: passes[w].Name(), Resource: r})
				delete(pending, w)
			}
		}
		plan = append(plan, Step{Kind: StepPass, Name: passes[i].Name(), pass: passes[i]})
		if isAsync(passes[i]) {
			pending[i] = true
		}
		done++

		for j := range succ[i] {
			indeg[j]--
			if indeg[j] == 0 {
				ready = append(ready, j)
			}
		}
	}
	if done != n {
		return nil, ErrGraphCycle
	}

	// Fences nobody reads are waited on at the end so no work outlives
	// the frame.
	for i := range n {
		if pending[i] {
			plan = append(plan, Step{Kind: StepBarrier, Name: passes[i].Name(), Resource: firstWrite(passes[i])})
		}
	}
	return plan, nil
}

// resourcesOf lists every resource mentioned by passes in ascending
// order so compilation is deterministic.
func resourcesOf(passes []Pass) []Resource {
	var out []Resource
	for _, p := range passes {
		out = append(out, p.Reads()...)
		out = append(out, p.Writes()...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func firstWrite(p Pass) Resource {
	if w := p.Writes(); len(w) > 0 {
		return w[0]
	}
	return ResourceParameters
}
