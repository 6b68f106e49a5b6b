package grammar

import (
	"iter"
	"strconv"
	"strings"
)

// Position locates a rule or production in its source file. The zero value
// means the position is unknown.
type Position struct {
	Line      int
	Column    int
	EndColumn int
}

// IsValid reports whether the position refers to a source line.
func (p Position) IsValid() bool { return p.Line > 0 }

// Category is the CNF shape of a production.
type Category int

const (
	Malformed Category = iota
	BinaryForm
	TerminalForm
	EpsilonForm
)

func (c Category) String() string {
	switch c {
	case BinaryForm:
		return "binary"
	case TerminalForm:
		return "terminal"
	case EpsilonForm:
		return "epsilon"
	default:
		return "malformed"
	}
}

// Production is one alternative right-hand side of a rule.
type Production struct {
	Symbols []Symbol
	Pos     Position
}

// NewProduction splits text into one symbol per byte.
func NewProduction(text string) Production {
	symbols := make([]Symbol, 0, len(text))
	for i := 0; i < len(text); i++ {
		symbols = append(symbols, Symbol(text[i:i+1]))
	}
	return Production{Symbols: symbols}
}

func (p Production) Arity() int { return len(p.Symbols) }

// Category classifies the production by arity and symbol kinds. Any single
// symbol other than the epsilon marker counts as TerminalForm here; the CNF
// validator is what rejects unit productions and unknown symbols.
func (p Production) Category() Category {
	switch len(p.Symbols) {
	case 1:
		if p.Symbols[0] == Epsilon {
			return EpsilonForm
		}
		return TerminalForm
	case 2:
		if p.Symbols[0].IsVariable() && p.Symbols[1].IsVariable() {
			return BinaryForm
		}
	}
	return Malformed
}

// Contains reports whether s occurs anywhere in the production.
func (p Production) Contains(s Symbol) bool {
	for _, sym := range p.Symbols {
		if sym == s {
			return true
		}
	}
	return false
}

func (p Production) String() string {
	var sb strings.Builder
	for _, s := range p.Symbols {
		sb.WriteString(string(s))
	}
	return sb.String()
}

// BinaryRule is a production Variable -> Left Right.
type BinaryRule struct {
	Variable Symbol
	Left     Symbol
	Right    Symbol
}

// TerminalRule is a production Variable -> Terminal.
type TerminalRule struct {
	Variable Symbol
	Terminal Symbol
}

// Grammar holds variables, terminals and the productions of each variable.
// Variables keep the order in which their rules were added; that order drives
// every iteration so results are deterministic.
type Grammar struct {
	start     Symbol
	order     []Symbol
	rules     map[Symbol][]Production
	positions map[Symbol]Position

	variables     []Symbol
	variableSet   map[Symbol]struct{}
	terminals     []Symbol
	terminalSet   map[Symbol]struct{}
	binaryCount   int
	termRuleCount int
}

// New returns an empty grammar with the given start variable.
func New(start Symbol) *Grammar {
	return &Grammar{
		start:       start,
		rules:       make(map[Symbol][]Production),
		positions:   make(map[Symbol]Position),
		variableSet: make(map[Symbol]struct{}),
		terminalSet: make(map[Symbol]struct{}),
	}
}

// AddRule appends productions to variable v. Symbols are recorded without
// validation so that malformed grammars can still be inspected.
func (g *Grammar) AddRule(v Symbol, pos Position, prods ...Production) {
	if _, ok := g.rules[v]; !ok {
		g.order = append(g.order, v)
		g.rules[v] = nil
		if pos.IsValid() {
			g.positions[v] = pos
		}
	}
	g.addVariable(v)

	for _, p := range prods {
		g.rules[v] = append(g.rules[v], p)
		switch p.Category() {
		case BinaryForm:
			g.binaryCount++
		case TerminalForm:
			g.termRuleCount++
		}
		for _, s := range p.Symbols {
			switch {
			case s == Epsilon, s.IsTerminal():
				g.addTerminal(s)
			case s.IsUpper():
				g.addVariable(s)
			}
		}
	}
}

func (g *Grammar) addVariable(s Symbol) {
	if _, ok := g.variableSet[s]; ok {
		return
	}
	g.variableSet[s] = struct{}{}
	g.variables = append(g.variables, s)
}

func (g *Grammar) addTerminal(s Symbol) {
	if _, ok := g.terminalSet[s]; ok {
		return
	}
	g.terminalSet[s] = struct{}{}
	g.terminals = append(g.terminals, s)
}

func (g *Grammar) Start() Symbol { return g.start }

// Order returns the left-hand-side variables in insertion order.
func (g *Grammar) Order() []Symbol { return append([]Symbol(nil), g.order...) }

// Variables returns every variable seen, on either side of a rule.
func (g *Grammar) Variables() []Symbol { return append([]Symbol(nil), g.variables...) }

// Terminals returns every terminal seen, including the epsilon marker.
func (g *Grammar) Terminals() []Symbol { return append([]Symbol(nil), g.terminals...) }

// Rules returns the productions of v. A variable without rules yields nil.
func (g *Grammar) Rules(v Symbol) []Production { return g.rules[v] }

// Defines reports whether v appears as a left-hand side.
func (g *Grammar) Defines(v Symbol) bool {
	_, ok := g.rules[v]
	return ok
}

// Position returns where v was first defined.
func (g *Grammar) Position(v Symbol) (Position, bool) {
	pos, ok := g.positions[v]
	return pos, ok
}

// BinaryRules yields every binary production in deterministic order.
func (g *Grammar) BinaryRules() iter.Seq[BinaryRule] {
	return func(yield func(BinaryRule) bool) {
		for _, v := range g.order {
			for _, p := range g.rules[v] {
				if p.Category() != BinaryForm {
					continue
				}
				if !yield(BinaryRule{Variable: v, Left: p.Symbols[0], Right: p.Symbols[1]}) {
					return
				}
			}
		}
	}
}

// TerminalRules yields every terminal production. Epsilon productions are
// excluded.
func (g *Grammar) TerminalRules() iter.Seq[TerminalRule] {
	return func(yield func(TerminalRule) bool) {
		for _, v := range g.order {
			for _, p := range g.rules[v] {
				if p.Category() != TerminalForm {
					continue
				}
				if !yield(TerminalRule{Variable: v, Terminal: p.Symbols[0]}) {
					return
				}
			}
		}
	}
}

func (g *Grammar) BinaryRuleCount() int   { return g.binaryCount }
func (g *Grammar) TerminalRuleCount() int { return g.termRuleCount }

// HasEpsilonRule reports whether any variable has an epsilon production.
func (g *Grammar) HasEpsilonRule() bool {
	_, ok := g.EpsilonVariable()
	return ok
}

// EpsilonVariable returns the first variable with an epsilon production.
func (g *Grammar) EpsilonVariable() (Symbol, bool) {
	for _, v := range g.order {
		if g.DerivesEpsilon(v) {
			return v, true
		}
	}
	return "", false
}

// DerivesEpsilon reports whether v has an epsilon production.
func (g *Grammar) DerivesEpsilon(v Symbol) bool {
	for _, p := range g.rules[v] {
		if p.Category() == EpsilonForm {
			return true
		}
	}
	return false
}

// String renders the grammar in the file format accepted by Parse.
func (g *Grammar) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(g.order)))
	sb.WriteByte('\n')
	for _, v := range g.order {
		sb.WriteString(string(v))
		sb.WriteByte('=')
		for i, p := range g.rules[v] {
			if i > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(p.String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
