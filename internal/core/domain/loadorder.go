package domain

import (
	"math"
	"sort"
)

// UnknownPosition is reported for modules that were never recorded.
// It sorts after every recorded position.
const UnknownPosition = math.MaxInt

// LoadOrder records the order in which modules were first loaded during
// process bootstrap. Recording happens once, before the process serves
// traffic, and the index is never rebuilt afterwards: modules that appear
// later have no position and sort last. LoadOrder is safe for concurrent
// reads once recording has finished.
type LoadOrder struct {
	pos map[InternedString]int
}

// NewLoadOrder creates an empty load order index.
func NewLoadOrder() *LoadOrder {
	return &LoadOrder{
		pos: make(map[InternedString]int),
	}
}

// Record appends name to the index if it has not been recorded yet.
func (o *LoadOrder) Record(name InternedString) {
	if _, ok := o.pos[name]; ok {
		return
	}
	o.pos[name] = len(o.pos)
}

// Position returns the recorded first-load position of name, or
// UnknownPosition if it was never recorded.
func (o *LoadOrder) Position(name InternedString) int {
	if p, ok := o.pos[name]; ok {
		return p
	}
	return UnknownPosition
}

// Len returns the number of recorded modules.
func (o *LoadOrder) Len() int {
	return len(o.pos)
}

// Sort orders names in place by ascending first-load position.
// Unrecorded modules come last; ties break by name so the result is
// deterministic.
func (o *LoadOrder) Sort(names []InternedString) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, pj := o.Position(names[i]), o.Position(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i].String() < names[j].String()
	})
}
