// Package cnf decides whether a grammar is in Chomsky Normal Form.
//
// A grammar is in CNF when every production is A -> BC (two variables),
// A -> a (one terminal) or S -> $ (epsilon, start variable only), and S does
// not occur on any right-hand side once S -> $ is present.
package cnf

import (
	"errors"
	"fmt"

	"github.com/gnoswap-labs/cnf/internal/grammar"
)

var ErrNotCNF = errors.New("grammar is not in Chomsky Normal Form")

// Verdict is the outcome of Validate. Reason is set iff Valid is false.
type Verdict struct {
	Valid      bool
	Rule       string
	Reason     string
	Suggestion string
	Variable   grammar.Symbol
	Production *grammar.Production
}

// Validate runs the CNF checks in order and reports the first violation.
func Validate(g *grammar.Grammar) Verdict {
	for _, rule := range defaultRules {
		if v := rule.Check(g); v != nil {
			return Verdict{
				Rule:       v.Rule,
				Reason:     v.Reason,
				Suggestion: v.Suggestion,
				Variable:   v.Variable,
				Production: v.Production,
			}
		}
	}
	return Verdict{Valid: true}
}

// ViolationError is returned by Certify for grammars that fail validation.
type ViolationError struct {
	Verdict Verdict
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Verdict.Rule, e.Verdict.Reason)
}

func (e *ViolationError) Unwrap() error { return ErrNotCNF }

// Validated is a grammar that passed Validate. It can only be obtained through
// Certify, so holding one proves the CNF preconditions hold as long as the
// underlying grammar is not extended afterwards.
type Validated struct {
	g *grammar.Grammar
}

// Grammar returns the certified grammar.
func (v *Validated) Grammar() *grammar.Grammar { return v.g }

// Certify validates g and wraps it on success.
func Certify(g *grammar.Grammar) (*Validated, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grammar", ErrNotCNF)
	}
	verdict := Validate(g)
	if !verdict.Valid {
		return nil, &ViolationError{Verdict: verdict}
	}
	return &Validated{g: g}, nil
}
