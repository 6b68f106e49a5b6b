package lints

import (
	"go/token"

	"github.com/gnoswap-labs/cnf/internal/grammar"
)

// Span converts a grammar position into the start and end positions used by
// issues. An unknown position maps to line 1 so that reports stay printable.
func Span(filename string, pos grammar.Position) (token.Position, token.Position) {
	if !pos.IsValid() {
		p := token.Position{Filename: filename, Line: 1, Column: 1}
		return p, p
	}
	start := token.Position{Filename: filename, Line: pos.Line, Column: pos.Column}
	end := token.Position{Filename: filename, Line: pos.Line, Column: max(pos.EndColumn, pos.Column)}
	return start, end
}

func variableSpan(filename string, g *grammar.Grammar, v grammar.Symbol) (token.Position, token.Position) {
	pos, _ := g.Position(v)
	return Span(filename, pos)
}
