package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gnoswap-labs/cnf/internal/estimate"
	"github.com/gnoswap-labs/cnf/internal/suite"
	"github.com/spf13/cobra"
)

var (
	forceSuite      bool
	suiteWorkers    int
	suiteJsonOutput bool
	suiteOutPath    string
)

var suiteCmd = &cobra.Command{
	Use:   "suite <dir>",
	Short: "Run membership test cases against the grammars in a directory",
	Long: `Run membership test cases against the grammars in a directory.

Every grammar file is paired with a case file of the same name and a .test
extension, holding one input|YES or input|NO per line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		runner := suite.NewRunner(logger, estimate.New(config.Estimator),
			suite.WithAliases(config.EpsilonAliases),
			suite.WithExtensions(config.Extensions),
			suite.WithForce(forceSuite),
			suite.WithWorkers(suiteWorkers),
		)
		report, err := runner.Run(ctx, args[0])
		if err != nil {
			return err
		}

		if suiteJsonOutput {
			if err := writeJSON(cmd.OutOrStdout(), suiteOutPath, report); err != nil {
				return err
			}
		} else {
			printSuiteReport(cmd.OutOrStdout(), report)
		}

		if !report.OK() {
			return &ExitError{Code: 1}
		}
		return nil
	},
}

func init() {
	suiteCmd.Flags().BoolVar(&forceSuite, "force", false, "Run cases the estimator declares infeasible")
	suiteCmd.Flags().IntVar(&suiteWorkers, "workers", 0, "Number of grammars tested concurrently (default: number of CPUs)")
	suiteCmd.Flags().BoolVar(&suiteJsonOutput, "json", false, "Output the report in JSON format")
	suiteCmd.Flags().StringVarP(&suiteOutPath, "output", "o", "", "Output path (when using JSON)")
}

func printSuiteReport(w io.Writer, report *suite.Report) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "MEMBERSHIP TEST SUITE")
	fmt.Fprintln(w, rule)

	for _, orphan := range report.Orphans {
		fmt.Fprintf(w, "\n⚠ Skipping %s: No test file found\n", filepath.Base(orphan))
	}

	for _, g := range report.Grammars {
		name := filepath.Base(g.Grammar)
		if g.Error != "" {
			fmt.Fprintf(w, "\n✗ %s: %s\n", name, g.Error)
			continue
		}

		fmt.Fprintf(w, "\nTesting: %s\n", name)
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, invalid := range g.Invalid {
			fmt.Fprintf(w, "  ⚠ %s\n", invalid)
		}
		for _, c := range g.Cases {
			switch c.Outcome {
			case suite.Passed:
				fmt.Fprintf(w, "  ✓ '%s': Expected %s, got %s\n", c.Raw, suite.Answer(c.Expect), suite.Answer(c.Actual))
			case suite.Failed:
				fmt.Fprintf(w, "  ✗ '%s': Expected %s, got %s\n", c.Raw, suite.Answer(c.Expect), suite.Answer(c.Actual))
			case suite.Skipped:
				fmt.Fprintf(w, "  - '%s': skipped, %s\n", c.Raw, c.Reason)
			}
		}
		passed, failed, skipped := g.Counts()
		fmt.Fprintf(w, "  Summary: %d passed, %d failed, %d skipped\n", passed, failed, skipped)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "TOTAL: %d passed, %d failed, %d skipped (run %s)\n", report.Passed, report.Failed, report.Skipped, report.RunID)
	fmt.Fprintln(w, rule)
}
