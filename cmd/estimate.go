package cmd

import (
	"fmt"
	"strconv"

	"github.com/gnoswap-labs/cnf/internal/estimate"
	"github.com/gnoswap-labs/cnf/internal/grammar"
	"github.com/spf13/cobra"
)

var (
	estimateJsonOutput bool
	estimateOutPath    string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <grammar> <length>",
	Short: "Estimate whether a membership test of the given length is feasible",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		g, err := grammar.ParseFile(args[0])
		if err != nil {
			fmt.Fprintf(w, "Error parsing grammar file: %v\n", err)
			return &ExitError{Code: 1}
		}

		length, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(w, "Error: Invalid string length: %s\n", args[1])
			return &ExitError{Code: 1}
		}

		a := estimate.New(config.Estimator).Feasible(g, length)
		if estimateJsonOutput {
			return writeJSON(w, estimateOutPath, a)
		}
		if a.Feasible {
			fmt.Fprintln(w, "YES")
		} else {
			fmt.Fprintln(w, "NO")
		}
		fmt.Fprintln(w, a.Explanation)
		return nil
	},
}

func init() {
	estimateCmd.Flags().BoolVar(&estimateJsonOutput, "json", false, "Output the assessment in JSON format")
	estimateCmd.Flags().StringVarP(&estimateOutPath, "output", "o", "", "Output path (when using JSON)")
}
