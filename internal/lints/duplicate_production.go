package lints

import (
	"fmt"

	"github.com/gnoswap-labs/cnf/internal/grammar"
	tt "github.com/gnoswap-labs/cnf/internal/types"
)

// DetectDuplicateProductions reports alternatives listed more than once for
// the same variable. Duplicates inflate the binary rule count the complexity
// estimate is based on.
func DetectDuplicateProductions(filename string, g *grammar.Grammar, severity tt.Severity) ([]tt.Issue, error) {
	var issues []tt.Issue
	for _, v := range g.Order() {
		seen := make(map[string]bool)
		for _, p := range g.Rules(v) {
			key := p.String()
			if !seen[key] {
				seen[key] = true
				continue
			}
			start, end := Span(filename, p.Pos)
			issues = append(issues, tt.Issue{
				Rule:     "duplicate-production",
				Category: "grammar",
				Filename: filename,
				Start:    start,
				End:      end,
				Message:  fmt.Sprintf("Production %s -> %s is listed more than once", v, key),
				Severity: severity,
			})
		}
	}
	return issues, nil
}
