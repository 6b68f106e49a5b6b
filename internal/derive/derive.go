// Package derive decides membership of a string in the language of a CNF
// grammar with a step-bounded brute-force search.
//
// In CNF a derivation of a non-empty string of length k uses exactly 2k-1
// rule applications, so the search treats the remaining step count as an
// exact budget at every level of the recursion.
package derive

import (
	"github.com/gnoswap-labs/cnf/internal/cnf"
	"github.com/gnoswap-labs/cnf/internal/grammar"
)

// Result carries the membership answer together with search statistics.
type Result struct {
	Member bool
	// Budget is the step count the search started with: 2n-1 for a string
	// of length n, or 1 for the empty string.
	Budget int
	// Calls counts derive invocations, cache hits included.
	Calls int
	// CacheEntries is the size of the memo table when the search finished.
	CacheEntries int
}

// Steps returns the exact number of rule applications a derivation of a
// string of the given length needs.
func Steps(length int) int {
	if length == 0 {
		return 1
	}
	return 2*length - 1
}

// TestMembership reports whether s is generated by g. The empty string asks
// whether the start variable has an epsilon production.
func TestMembership(g *cnf.Validated, s string) bool {
	return Run(g, s).Member
}

// Run is TestMembership with statistics. Every call owns a fresh memo table;
// nothing is shared between calls, so concurrent runs over the same grammar
// are safe.
func Run(g *cnf.Validated, s string) Result {
	gr := g.Grammar()
	if s == "" {
		return Result{
			Member: gr.DerivesEpsilon(gr.Start()),
			Budget: Steps(0),
		}
	}

	d := &deriver{
		g:    gr,
		memo: make(map[memoKey]bool),
	}
	budget := Steps(len(s))
	member := d.derive(gr.Start(), s, budget)
	return Result{
		Member:       member,
		Budget:       budget,
		Calls:        d.calls,
		CacheEntries: len(d.memo),
	}
}

type memoKey struct {
	variable grammar.Symbol
	target   string
	steps    int
}

type deriver struct {
	g     *grammar.Grammar
	memo  map[memoKey]bool
	calls int
}

func (d *deriver) derive(v grammar.Symbol, target string, steps int) bool {
	d.calls++
	key := memoKey{variable: v, target: target, steps: steps}
	if result, ok := d.memo[key]; ok {
		return result
	}
	result := d.search(v, target, steps)
	d.memo[key] = result
	return result
}

func (d *deriver) search(v grammar.Symbol, target string, steps int) bool {
	switch {
	case steps == 0:
		return string(v) == target
	case len(target) == 0:
		return d.g.DerivesEpsilon(v)
	case len(target) == 1:
		return steps == 1 && d.hasTerminal(v, target)
	}

	for _, p := range d.g.Rules(v) {
		if p.Category() != grammar.BinaryForm {
			continue
		}
		left, right := p.Symbols[0], p.Symbols[1]
		for split := 1; split < len(target); split++ {
			leftSteps := Steps(split)
			rightSteps := Steps(len(target) - split)
			if 1+leftSteps+rightSteps > steps {
				continue
			}
			if d.derive(left, target[:split], leftSteps) &&
				d.derive(right, target[split:], rightSteps) {
				return true
			}
		}
	}
	return false
}

func (d *deriver) hasTerminal(v grammar.Symbol, target string) bool {
	for _, p := range d.g.Rules(v) {
		if p.Category() == grammar.TerminalForm && string(p.Symbols[0]) == target {
			return true
		}
	}
	return false
}
