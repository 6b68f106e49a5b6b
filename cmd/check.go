package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gnoswap-labs/cnf/analyze"
	"github.com/gnoswap-labs/cnf/formatter"
	"github.com/gnoswap-labs/cnf/internal"
	tt "github.com/gnoswap-labs/cnf/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ignoreRules     string
	checkJsonOutput bool
	checkOutPath    string
	showProgress    bool
)

var checkCmd = &cobra.Command{
	Use:     "check [paths...]",
	Aliases: []string{"check_cnf"},
	Short:   "Check whether grammars are in Chomsky Normal Form",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		engine := analyze.NewWithConfig(config)
		if ignoreRules != "" {
			for _, rule := range strings.Split(ignoreRules, ",") {
				engine.IgnoreRule(strings.TrimSpace(rule))
			}
		}

		opts := analyze.Options{Extensions: config.Extensions}
		if showProgress {
			opts.Progress = cmd.ErrOrStderr()
		}
		reports, err := analyze.CheckPaths(ctx, logger, engine, args, opts)
		if err != nil {
			return err
		}

		if checkJsonOutput {
			if err := writeJSON(cmd.OutOrStdout(), checkOutPath, checkResults(reports)); err != nil {
				return err
			}
		} else {
			printReports(cmd.OutOrStdout(), reports)
		}

		for _, r := range reports {
			if !r.IsCNF() || r.HasErrors() {
				return &ExitError{Code: 1}
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of advisory rules to ignore")
	checkCmd.Flags().BoolVar(&checkJsonOutput, "json", false, "Output results in JSON format")
	checkCmd.Flags().StringVarP(&checkOutPath, "output", "o", "", "Output path (when using JSON)")
	checkCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar on stderr")
}

// reason explains why a report is not CNF.
func reason(r *internal.Report) string {
	if r.Grammar != nil {
		return r.Verdict.Reason
	}
	for _, issue := range r.Issues {
		if issue.Rule == internal.RuleParseError {
			return issue.Message
		}
	}
	return "unknown error"
}

func printReports(w io.Writer, reports []*internal.Report) {
	if len(reports) == 1 {
		r := reports[0]
		if r.IsCNF() {
			fmt.Fprintln(w, "YES")
			fmt.Fprintln(w, "The grammar is in Chomsky Normal Form.")
		} else {
			fmt.Fprintln(w, "NO")
			fmt.Fprintf(w, "Reason: %s\n", reason(r))
		}
	} else {
		for _, r := range reports {
			if r.IsCNF() {
				fmt.Fprintf(w, "%s: YES\n", r.Filename)
			} else {
				fmt.Fprintf(w, "%s: NO (%s)\n", r.Filename, reason(r))
			}
		}
	}

	for _, r := range reports {
		if len(r.Issues) == 0 {
			continue
		}
		sourceCode, err := internal.ReadSourceCode(r.Filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", r.Filename), zap.Error(err))
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, formatter.GenerateFormattedIssue(r.Issues, sourceCode))
	}
}

type checkResult struct {
	CNF    bool       `json:"cnf"`
	Reason string     `json:"reason,omitempty"`
	Issues []tt.Issue `json:"issues"`
}

func checkResults(reports []*internal.Report) map[string]checkResult {
	results := make(map[string]checkResult, len(reports))
	for _, r := range reports {
		res := checkResult{CNF: r.IsCNF(), Issues: r.Issues}
		if !res.CNF {
			res.Reason = reason(r)
		}
		if res.Issues == nil {
			res.Issues = []tt.Issue{}
		}
		results[r.Filename] = res
	}
	return results
}

// writeJSON writes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling to JSON: %w", err)
	}
	if path == "" {
		_, err = fmt.Fprintln(w, string(d))
		return err
	}
	if err := os.WriteFile(path, append(d, '\n'), 0o644); err != nil {
		return fmt.Errorf("error writing JSON output file: %w", err)
	}
	return nil
}
