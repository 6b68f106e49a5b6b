package lints

import (
	"fmt"

	"github.com/gnoswap-labs/cnf/internal/grammar"
	tt "github.com/gnoswap-labs/cnf/internal/types"
)

// DetectUnreachableVariables reports defined variables that no derivation
// from the start variable can reach.
func DetectUnreachableVariables(filename string, g *grammar.Grammar, severity tt.Severity) ([]tt.Issue, error) {
	reachable := reachableFrom(g, g.Start())

	var issues []tt.Issue
	for _, v := range g.Order() {
		if reachable[v] {
			continue
		}
		start, end := variableSpan(filename, g, v)
		issues = append(issues, tt.Issue{
			Rule:     "unreachable-variable",
			Category: "grammar",
			Filename: filename,
			Start:    start,
			End:      end,
			Message:  fmt.Sprintf("Variable %s is not reachable from %s", v, g.Start()),
			Severity: severity,
		})
	}
	return issues, nil
}

func reachableFrom(g *grammar.Grammar, start grammar.Symbol) map[grammar.Symbol]bool {
	seen := map[grammar.Symbol]bool{start: true}
	stack := []grammar.Symbol{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Rules(v) {
			for _, sym := range p.Symbols {
				if !sym.IsVariable() || seen[sym] {
					continue
				}
				seen[sym] = true
				stack = append(stack, sym)
			}
		}
	}
	return seen
}
