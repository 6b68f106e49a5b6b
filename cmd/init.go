package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gnoswap-labs/cnf/analyze"
	"github.com/spf13/cobra"
)

var overwriteConfig bool

// initCmd: cnf init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = analyze.DefaultConfigFile
		}
		if err := initConfigurationFile(path, overwriteConfig); err != nil {
			return fmt.Errorf("error initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&overwriteConfig, "force", false, "Overwrite an existing configuration file")
}

func initConfigurationFile(configurationPath string, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(configurationPath, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists, use --force to overwrite", configurationPath)
		}
		return err
	}
	defer f.Close()

	return analyze.WriteConfig(f, analyze.DefaultConfig())
}
