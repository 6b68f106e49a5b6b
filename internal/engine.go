package internal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/gnoswap-labs/cnf/internal/cnf"
	"github.com/gnoswap-labs/cnf/internal/grammar"
	"github.com/gnoswap-labs/cnf/internal/lints"
	tt "github.com/gnoswap-labs/cnf/internal/types"
)

// RuleParseError names issues raised for files that are not grammars at all.
const RuleParseError = "parse-error"

// Engine checks grammar files: parsing, CNF validation and advisory rules.
type Engine struct {
	ignoredRules map[string]bool
	rules        map[string]LintRule
}

// NewEngine creates an engine with the default advisory rules, adjusted by
// the per-rule configuration.
func NewEngine(rules map[string]tt.ConfigRule) *Engine {
	engine := &Engine{}
	engine.applyRules(rules)
	return engine
}

type ruleConstructor func() LintRule

type ruleMap map[string]ruleConstructor

var allRuleConstructors = ruleMap{
	"undefined-variable":   NewUndefinedVariableRule,
	"unreachable-variable": NewUnreachableVariableRule,
	"duplicate-production": NewDuplicateProductionRule,
}

// RuleNames lists the configurable advisory rules in sorted order.
func RuleNames() []string {
	names := make([]string, 0, len(allRuleConstructors))
	for name := range allRuleConstructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRules returns the configuration entry of every advisory rule.
func DefaultRules() map[string]tt.ConfigRule {
	rules := make(map[string]tt.ConfigRule, len(allRuleConstructors))
	for name, newRule := range allRuleConstructors {
		rules[name] = tt.ConfigRule{Severity: newRule().Severity()}
	}
	return rules
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) {
	e.rules = make(map[string]LintRule)
	for key, newRuleCstr := range allRuleConstructors {
		e.rules[key] = newRuleCstr()
	}

	for key, rule := range rules {
		r, ok := e.rules[key]
		if !ok {
			// unknown rule
			continue
		}
		if rule.Severity == tt.SeverityOff {
			e.IgnoreRule(key)
		}
		r.SetSeverity(rule.Severity)
	}
}

func (e *Engine) IgnoreRule(rule string) {
	if e.ignoredRules == nil {
		e.ignoredRules = make(map[string]bool)
	}
	e.ignoredRules[rule] = true
}

// Report is the outcome of checking one grammar.
type Report struct {
	Filename string
	// Grammar is nil when the source could not be parsed.
	Grammar *grammar.Grammar
	Verdict cnf.Verdict
	Issues  []tt.Issue
}

// IsCNF reports whether the grammar parsed and passed validation.
func (r *Report) IsCNF() bool {
	return r.Grammar != nil && r.Verdict.Valid
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == tt.SeverityError {
			return true
		}
	}
	return false
}

// Run checks the grammar file and returns its issues.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	report, err := e.CheckFile(filename)
	if err != nil {
		return nil, err
	}
	return report.Issues, nil
}

// RunSource checks grammar source that has no file behind it.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	report, err := e.Check("", source)
	if err != nil {
		return nil, err
	}
	return report.Issues, nil
}

// CheckFile reads and checks a grammar file.
func (e *Engine) CheckFile(filename string) (*Report, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading grammar file: %w", err)
	}
	return e.Check(filename, source)
}

// Check parses source, validates it and applies the advisory rules. Parse
// failures and CNF violations are reported as issues, not errors.
func (e *Engine) Check(filename string, source []byte) (*Report, error) {
	report := &Report{Filename: filename}

	g, err := grammar.Parse(bytes.NewReader(source), filename)
	if err != nil {
		var perr *grammar.ParseError
		if !errors.As(err, &perr) {
			return nil, err
		}
		report.Issues = []tt.Issue{parseIssue(filename, perr)}
		return report, nil
	}
	report.Grammar = g

	report.Verdict = cnf.Validate(g)
	if !report.Verdict.Valid {
		report.Issues = append(report.Issues, violationIssue(filename, g, report.Verdict))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, rule := range e.rules {
		if e.ignoredRules[rule.Name()] {
			continue
		}
		wg.Add(1)
		go func(r LintRule) {
			defer wg.Done()
			issues, err := r.Check(filename, g)
			if err != nil {
				return
			}
			mu.Lock()
			report.Issues = append(report.Issues, issues...)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()

	sortIssues(report.Issues)
	return report, nil
}

func parseIssue(filename string, perr *grammar.ParseError) tt.Issue {
	pos := grammar.Position{Line: perr.Line, Column: max(perr.Column, 1)}
	start, end := lints.Span(filename, pos)
	return tt.Issue{
		Rule:     RuleParseError,
		Category: "syntax",
		Filename: filename,
		Start:    start,
		End:      end,
		Message:  perr.Msg,
		Note:     "expected a rule count followed by that many VAR=prod|prod lines",
		Severity: tt.SeverityError,
	}
}

func violationIssue(filename string, g *grammar.Grammar, v cnf.Verdict) tt.Issue {
	var pos grammar.Position
	if v.Production != nil {
		pos = v.Production.Pos
	}
	if !pos.IsValid() {
		pos, _ = g.Position(v.Variable)
	}
	start, end := lints.Span(filename, pos)
	return tt.Issue{
		Rule:       v.Rule,
		Category:   "cnf",
		Filename:   filename,
		Start:      start,
		End:        end,
		Message:    v.Reason,
		Suggestion: v.Suggestion,
		Note:       "CNF allows only A -> BC, A -> a and S -> $",
		Severity:   tt.SeverityError,
	}
}

func sortIssues(issues []tt.Issue) {
	slices.SortStableFunc(issues, func(a, b tt.Issue) int {
		if a.Start.Line != b.Start.Line {
			return a.Start.Line - b.Start.Line
		}
		if a.Start.Column != b.Start.Column {
			return a.Start.Column - b.Start.Column
		}
		return strings.Compare(a.Rule, b.Rule)
	})
}

// SourceCode stores the content of a grammar file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a SourceCode.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}

func NewSourceCode(content []byte) *SourceCode {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return &SourceCode{Lines: strings.Split(text, "\n")}
}
