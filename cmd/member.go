package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gnoswap-labs/cnf/internal/cnf"
	"github.com/gnoswap-labs/cnf/internal/derive"
	"github.com/gnoswap-labs/cnf/internal/estimate"
	"github.com/gnoswap-labs/cnf/internal/grammar"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var guard bool

// errTimeout is returned when a command does not finish within --timeout.
var errTimeout = errors.New("command timed out")

var memberCmd = &cobra.Command{
	Use:     "member <grammar> <string>",
	Aliases: []string{"test_membership"},
	Short:   "Test whether a string belongs to the language of a CNF grammar",
	Long: `Test whether a string belongs to the language of a CNF grammar.

Use "epsilon" or "ε" for the empty string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return runMembership(ctx, cmd.OutOrStdout(), args[0], config.Input(args[1]))
	},
}

func init() {
	memberCmd.Flags().BoolVar(&guard, "guard", false, "Refuse to search when the estimate exceeds the time budget")
}

func runMembership(ctx context.Context, w io.Writer, path, input string) error {
	g, err := grammar.ParseFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error parsing grammar file: %v\n", err)
		return &ExitError{Code: 1}
	}

	vg, err := cnf.Certify(g)
	if err != nil {
		var verr *cnf.ViolationError
		if !errors.As(err, &verr) {
			return err
		}
		fmt.Fprintf(w, "Error: Grammar is not in CNF. %s\n", verr.Verdict.Reason)
		fmt.Fprintln(w, "Membership testing requires CNF grammar.")
		return &ExitError{Code: 1}
	}

	if guard {
		a := estimate.New(config.Estimator).Feasible(g, len(input))
		if !a.Feasible {
			fmt.Fprintf(w, "Refusing to search: %s\n", a.Explanation)
			return &ExitError{Code: 2}
		}
	}

	var result derive.Result
	if err := runWithTimeout(ctx, func() { result = derive.Run(vg, input) }); err != nil {
		return err
	}
	logger.Debug("membership search finished",
		zap.String("grammar", path),
		zap.Int("length", len(input)),
		zap.Int("budget", result.Budget),
		zap.Int("calls", result.Calls),
		zap.Int("cache_entries", result.CacheEntries),
	)

	subject := fmt.Sprintf("The string '%s'", input)
	if input == "" {
		subject = "The empty string (epsilon)"
	}
	if result.Member {
		fmt.Fprintln(w, "YES")
		fmt.Fprintf(w, "%s belongs to the grammar.\n", subject)
	} else {
		fmt.Fprintln(w, "NO")
		fmt.Fprintf(w, "%s does not belong to the grammar.\n", subject)
	}
	return nil
}

// runWithTimeout runs f and gives up when ctx is done. f keeps running in
// the background in that case; the process is expected to exit soon after.
func runWithTimeout(ctx context.Context, f func()) error {
	done := make(chan struct{})
	go func() {
		f()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errTimeout, ctx.Err())
	case <-done:
		return nil
	}
}
