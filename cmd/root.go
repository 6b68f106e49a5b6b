package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gnoswap-labs/cnf/analyze"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
	config analyze.Config
)

// ExitError carries a process exit code for outcomes that are not failures
// of the tool itself, such as a grammar that is not in CNF.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "cnf",
	Short: "cnf - check Chomsky Normal Form grammars and test string membership",
	Long: `cnf validates context-free grammars against Chomsky Normal Form, decides
whether a string belongs to the language of a CNF grammar, and estimates
whether the brute-force membership search is worth running.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default: "+analyze.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Set a timeout for the command")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(suiteCmd)
	rootCmd.AddCommand(watchCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	logger, err = newLogger(verbose)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	// init writes the configuration file, it must not need one
	if cmd == initCmd {
		config = analyze.DefaultConfig()
		return nil
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(analyze.DefaultConfigFile); err == nil {
			path = analyze.DefaultConfigFile
		}
	}
	config, err = analyze.LoadConfig(path)
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", zap.String("path", path), zap.String("name", config.Name))
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
