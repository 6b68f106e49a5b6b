package internal

import (
	"github.com/gnoswap-labs/cnf/internal/grammar"
	"github.com/gnoswap-labs/cnf/internal/lints"
	tt "github.com/gnoswap-labs/cnf/internal/types"
)

// LintRule defines the interface for advisory grammar rules.
type LintRule interface {
	// Check runs the rule on a parsed grammar and returns a slice of Issues.
	Check(filename string, g *grammar.Grammar) ([]tt.Issue, error)

	// Name returns the name of the lint rule.
	Name() string

	Severity() tt.Severity
	SetSeverity(tt.Severity)
}

type UndefinedVariableRule struct {
	severity tt.Severity
}

func NewUndefinedVariableRule() LintRule {
	return &UndefinedVariableRule{severity: tt.SeverityWarning}
}

func (r *UndefinedVariableRule) Check(filename string, g *grammar.Grammar) ([]tt.Issue, error) {
	return lints.DetectUndefinedVariables(filename, g, r.severity)
}

func (r *UndefinedVariableRule) Name() string { return "undefined-variable" }

func (r *UndefinedVariableRule) Severity() tt.Severity { return r.severity }

func (r *UndefinedVariableRule) SetSeverity(s tt.Severity) { r.severity = s }

type UnreachableVariableRule struct {
	severity tt.Severity
}

func NewUnreachableVariableRule() LintRule {
	return &UnreachableVariableRule{severity: tt.SeverityWarning}
}

func (r *UnreachableVariableRule) Check(filename string, g *grammar.Grammar) ([]tt.Issue, error) {
	return lints.DetectUnreachableVariables(filename, g, r.severity)
}

func (r *UnreachableVariableRule) Name() string { return "unreachable-variable" }

func (r *UnreachableVariableRule) Severity() tt.Severity { return r.severity }

func (r *UnreachableVariableRule) SetSeverity(s tt.Severity) { r.severity = s }

type DuplicateProductionRule struct {
	severity tt.Severity
}

func NewDuplicateProductionRule() LintRule {
	return &DuplicateProductionRule{severity: tt.SeverityWarning}
}

func (r *DuplicateProductionRule) Check(filename string, g *grammar.Grammar) ([]tt.Issue, error) {
	return lints.DetectDuplicateProductions(filename, g, r.severity)
}

func (r *DuplicateProductionRule) Name() string { return "duplicate-production" }

func (r *DuplicateProductionRule) Severity() tt.Severity { return r.severity }

func (r *DuplicateProductionRule) SetSeverity(s tt.Severity) { r.severity = s }
