// Package suite runs membership expectations against grammar files.
//
// A suite directory holds grammar files next to case files with the same
// base name and a .test extension:
//
//	anbn.txt   the grammar
//	anbn.test  one input|YES or input|NO per line
//
// Every grammar must be valid CNF; a grammar that is not counts as one
// failure and its cases are not run.
package suite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/gnoswap-labs/cnf/internal/cnf"
	"github.com/gnoswap-labs/cnf/internal/derive"
	"github.com/gnoswap-labs/cnf/internal/estimate"
	"github.com/gnoswap-labs/cnf/internal/grammar"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CaseExt is the extension of case files.
const CaseExt = ".test"

type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Case
	Actual   bool          `json:"actual"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// GrammarResult collects the cases of one grammar file.
type GrammarResult struct {
	Grammar  string `json:"grammar"`
	CaseFile string `json:"case_file,omitempty"`
	// Error is set when the grammar could not be used at all.
	Error string       `json:"error,omitempty"`
	Cases []CaseResult `json:"cases,omitempty"`
	// Invalid lists malformed case lines that were skipped.
	Invalid []string `json:"invalid,omitempty"`
}

// Counts returns passed, failed and skipped cases. An unusable grammar
// counts as one failure.
func (g *GrammarResult) Counts() (passed, failed, skipped int) {
	if g.Error != "" {
		return 0, 1, 0
	}
	for _, c := range g.Cases {
		switch c.Outcome {
		case Passed:
			passed++
		case Failed:
			failed++
		case Skipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Report is the outcome of a suite run.
type Report struct {
	RunID    uuid.UUID       `json:"run_id"`
	Dir      string          `json:"dir"`
	Grammars []GrammarResult `json:"grammars"`
	// Orphans are grammar files without a case file.
	Orphans []string      `json:"orphans,omitempty"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
}

// OK reports whether nothing failed.
func (r *Report) OK() bool { return r.Failed == 0 }

// Runner runs suite directories.
type Runner struct {
	logger     *zap.Logger
	estimator  *estimate.Estimator
	aliases    []string
	extensions []string
	force      bool
	workers    int
}

type Option func(*Runner)

// WithAliases sets the inputs that stand for the empty string.
func WithAliases(aliases []string) Option {
	return func(r *Runner) { r.aliases = aliases }
}

// WithExtensions sets the grammar file extensions.
func WithExtensions(exts []string) Option {
	return func(r *Runner) { r.extensions = exts }
}

// WithForce runs cases the estimator declares infeasible instead of
// skipping them.
func WithForce(force bool) Option {
	return func(r *Runner) { r.force = force }
}

// WithWorkers bounds how many grammars run at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func NewRunner(logger *zap.Logger, estimator *estimate.Estimator, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if estimator == nil {
		estimator = estimate.New(estimate.DefaultConfig())
	}
	r := &Runner{
		logger:     logger,
		estimator:  estimator,
		aliases:    []string{"epsilon", "ε"},
		extensions: []string{".txt"},
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every grammar in dir that has a case file. Grammars run
// concurrently; each membership call keeps its own memo table.
func (r *Runner) Run(ctx context.Context, dir string) (*Report, error) {
	started := time.Now()
	report := &Report{RunID: uuid.New(), Dir: dir}
	log := r.logger.With(zap.String("run_id", report.RunID.String()), zap.String("dir", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading suite directory: %w", err)
	}

	type pair struct{ grammar, cases string }
	var pairs []pair
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !slices.Contains(r.extensions, filepath.Ext(name)) {
			continue
		}
		casePath := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+CaseExt)
		if _, err := os.Stat(casePath); err != nil {
			log.Warn("no case file", zap.String("grammar", name))
			report.Orphans = append(report.Orphans, filepath.Join(dir, name))
			continue
		}
		pairs = append(pairs, pair{grammar: filepath.Join(dir, name), cases: casePath})
	}

	report.Grammars = make([]GrammarResult, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range pairs {
		g.Go(func() error {
			result, err := r.runGrammar(ctx, p.grammar, p.cases)
			if err != nil {
				return err
			}
			report.Grammars[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range report.Grammars {
		passed, failed, skipped := report.Grammars[i].Counts()
		report.Passed += passed
		report.Failed += failed
		report.Skipped += skipped
	}
	report.Elapsed = time.Since(started)
	log.Info("suite finished",
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// runGrammar returns an error only when the run must stop; problems with
// the grammar or its cases are recorded in the result.
func (r *Runner) runGrammar(ctx context.Context, grammarPath, casePath string) (*GrammarResult, error) {
	result := &GrammarResult{Grammar: grammarPath, CaseFile: casePath}
	log := r.logger.With(zap.String("grammar", grammarPath))

	gr, err := grammar.ParseFile(grammarPath)
	if err != nil {
		result.Error = fmt.Sprintf("Error parsing grammar: %v", err)
		log.Warn("grammar rejected", zap.Error(err))
		return result, nil
	}
	vg, err := cnf.Certify(gr)
	if err != nil {
		var verr *cnf.ViolationError
		if errors.As(err, &verr) {
			result.Error = "Grammar is not CNF: " + verr.Verdict.Reason
		} else {
			result.Error = err.Error()
		}
		log.Warn("grammar rejected", zap.Error(err))
		return result, nil
	}

	f, err := os.Open(casePath)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	defer f.Close()

	cases, err := ParseCases(f, r.aliases)
	if err != nil {
		if !errors.Is(err, ErrCaseFormat) {
			result.Error = err.Error()
			return result, nil
		}
		for _, line := range strings.Split(err.Error(), "\n") {
			result.Invalid = append(result.Invalid, line)
		}
		log.Warn("invalid case lines", zap.Int("count", len(result.Invalid)))
	}

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Cases = append(result.Cases, r.runCase(vg, c))
	}
	return result, nil
}

func (r *Runner) runCase(vg *cnf.Validated, c Case) CaseResult {
	res := CaseResult{Case: c}
	if !r.force {
		if a := r.estimator.Feasible(vg.Grammar(), len(c.Input)); !a.Feasible {
			res.Outcome = Skipped
			res.Reason = a.Explanation
			return res
		}
	}

	started := time.Now()
	res.Actual = derive.TestMembership(vg, c.Input)
	res.Duration = time.Since(started)
	if res.Actual == c.Expect {
		res.Outcome = Passed
	} else {
		res.Outcome = Failed
		res.Reason = fmt.Sprintf("Expected %s, got %s", Answer(c.Expect), Answer(res.Actual))
	}
	return res
}

// Answer renders a membership result the way case files write it.
func Answer(member bool) string {
	if member {
		return "YES"
	}
	return "NO"
}
