package lints

import (
	"fmt"

	"github.com/gnoswap-labs/cnf/internal/grammar"
	tt "github.com/gnoswap-labs/cnf/internal/types"
)

// DetectUndefinedVariables reports variables that appear on a right-hand side
// but have no rules of their own. Derivations through them always fail.
func DetectUndefinedVariables(filename string, g *grammar.Grammar, severity tt.Severity) ([]tt.Issue, error) {
	var issues []tt.Issue
	reported := make(map[grammar.Symbol]bool)

	for _, v := range g.Order() {
		for _, p := range g.Rules(v) {
			for _, sym := range p.Symbols {
				if !sym.IsVariable() || g.Defines(sym) || reported[sym] {
					continue
				}
				reported[sym] = true

				start, end := Span(filename, p.Pos)
				issues = append(issues, tt.Issue{
					Rule:       "undefined-variable",
					Category:   "grammar",
					Filename:   filename,
					Start:      start,
					End:        end,
					Message:    fmt.Sprintf("Variable %s is used in %s -> %s but has no rules", sym, v, p),
					Suggestion: fmt.Sprintf("%s=<productions>", sym),
					Note:       "every derivation that reaches this variable fails",
					Severity:   severity,
				})
			}
		}
	}
	return issues, nil
}
