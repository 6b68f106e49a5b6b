package cnf

import (
	"fmt"

	"github.com/gnoswap-labs/cnf/internal/grammar"
)

// Names of the checks performed by Validate, in evaluation order.
const (
	RuleStartSymbol       = "start-symbol"
	RuleVariableName      = "variable-name"
	RuleEmptyProduction   = "empty-production"
	RuleEpsilonPlacement  = "epsilon-placement"
	RuleUnitProduction    = "unit-production"
	RuleInvalidSymbol     = "invalid-symbol"
	RuleBinaryProduction  = "binary-production"
	RuleBinarySymbolWidth = "binary-symbol-width"
	RuleProductionArity   = "production-arity"
	RuleStartEpsilon      = "start-epsilon"
	RuleSymbolSweep       = "symbol-sweep"
)

// Violation describes the first broken CNF constraint found by a Rule.
type Violation struct {
	Rule       string
	Reason     string
	Suggestion string
	Variable   grammar.Symbol
	Production *grammar.Production
}

// Rule is a single structural check over a grammar.
type Rule interface {
	// Check returns the first violation found, or nil.
	Check(g *grammar.Grammar) *Violation

	// Name returns the name of the check.
	Name() string
}

// defaultRules is evaluated in order; Validate stops at the first violation.
var defaultRules = []Rule{
	&StartSymbolRule{},
	&VariableNameRule{},
	&ProductionShapeRule{},
	&StartEpsilonRule{},
	&SymbolSweepRule{},
}

// -----------------------------------------------------------------------------

type StartSymbolRule struct{}

func (r *StartSymbolRule) Check(g *grammar.Grammar) *Violation {
	if g.Start() == grammar.Start {
		return nil
	}
	return &Violation{
		Rule:     RuleStartSymbol,
		Reason:   fmt.Sprintf("Start variable must be S, found: %s", g.Start()),
		Variable: g.Start(),
	}
}

func (r *StartSymbolRule) Name() string { return RuleStartSymbol }

// -----------------------------------------------------------------------------

type VariableNameRule struct{}

func (r *VariableNameRule) Check(g *grammar.Grammar) *Violation {
	for _, v := range g.Order() {
		if !v.IsVariable() {
			return &Violation{
				Rule:     RuleVariableName,
				Reason:   fmt.Sprintf("Invalid variable name: %s (must be single uppercase letter)", v),
				Variable: v,
			}
		}
	}
	return nil
}

func (r *VariableNameRule) Name() string { return RuleVariableName }

// -----------------------------------------------------------------------------

// ProductionShapeRule checks the arity and symbol kinds of every production.
type ProductionShapeRule struct{}

func (r *ProductionShapeRule) Check(g *grammar.Grammar) *Violation {
	for _, v := range g.Order() {
		prods := g.Rules(v)
		for i := range prods {
			if violation := checkShape(g, v, &prods[i]); violation != nil {
				return violation
			}
		}
	}
	return nil
}

func (r *ProductionShapeRule) Name() string { return "production-shape" }

func checkShape(g *grammar.Grammar, v grammar.Symbol, p *grammar.Production) *Violation {
	violation := func(rule, suggestion, format string, args ...any) *Violation {
		return &Violation{
			Rule:       rule,
			Reason:     fmt.Sprintf(format, args...),
			Suggestion: suggestion,
			Variable:   v,
			Production: p,
		}
	}

	switch p.Arity() {
	case 0:
		return violation(RuleEmptyProduction,
			"write $ for the empty string on the start variable",
			"Empty production found for variable %s", v)

	case 1:
		sym := p.Symbols[0]
		switch {
		case sym == grammar.Epsilon:
			if v != g.Start() {
				return violation(RuleEpsilonPlacement,
					"only S may derive the empty string",
					"Epsilon production only allowed for start variable S, found for %s", v)
			}
		case sym.IsTerminal():
		case sym.IsUpper():
			return violation(RuleUnitProduction,
				fmt.Sprintf("replace %s -> %s with the right-hand sides of %s", v, sym, sym),
				"Invalid CNF production: %s -> %s (single variable not allowed, use terminal or binary rule)", v, sym)
		default:
			return violation(RuleInvalidSymbol, "",
				"Invalid symbol in production: %s", sym)
		}

	case 2:
		left, right := p.Symbols[0], p.Symbols[1]
		if !left.IsUpper() || !right.IsUpper() {
			return violation(RuleBinaryProduction,
				"introduce a variable for each terminal, e.g. X=a, and use it in place of the terminal",
				"Binary production %s -> %s%s must have two variables (uppercase letters)", v, left, right)
		}
		if len(left) != 1 || len(right) != 1 {
			return violation(RuleBinarySymbolWidth, "",
				"Binary production %s -> %s%s must have single-character variables", v, left, right)
		}

	default:
		return violation(RuleProductionArity,
			"split the right-hand side into a chain of binary rules",
			"Invalid CNF production: %s -> %s (CNF allows max 2 symbols on right side)", v, p)
	}
	return nil
}

// -----------------------------------------------------------------------------

// StartEpsilonRule forbids S on any right-hand side once S -> $ exists.
type StartEpsilonRule struct{}

func (r *StartEpsilonRule) Check(g *grammar.Grammar) *Violation {
	start := g.Start()
	if !g.DerivesEpsilon(start) {
		return nil
	}
	for _, v := range g.Order() {
		prods := g.Rules(v)
		for i := range prods {
			p := &prods[i]
			if p.Arity() != 2 || !p.Contains(start) {
				continue
			}
			return &Violation{
				Rule:       RuleStartEpsilon,
				Reason:     fmt.Sprintf("If S -> ε exists, S cannot appear on right side. Found: %s -> %s", v, p),
				Suggestion: "add a fresh start variable S0 with S0 -> S | $ and drop S -> $",
				Variable:   v,
				Production: p,
			}
		}
	}
	return nil
}

func (r *StartEpsilonRule) Name() string { return RuleStartEpsilon }

// -----------------------------------------------------------------------------

// SymbolSweepRule makes sure every symbol is classifiable, including ones the
// shape checks never looked at.
type SymbolSweepRule struct{}

func (r *SymbolSweepRule) Check(g *grammar.Grammar) *Violation {
	for _, v := range g.Order() {
		prods := g.Rules(v)
		for i := range prods {
			for _, sym := range prods[i].Symbols {
				if sym == grammar.Epsilon || sym.IsUpper() || sym.IsTerminal() {
					continue
				}
				return &Violation{
					Rule:       RuleSymbolSweep,
					Reason:     fmt.Sprintf("Invalid symbol found: %s", sym),
					Variable:   v,
					Production: &prods[i],
				}
			}
		}
	}
	return nil
}

func (r *SymbolSweepRule) Name() string { return RuleSymbolSweep }
