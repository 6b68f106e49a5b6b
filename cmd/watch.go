package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gnoswap-labs/cnf/analyze"
	"github.com/gnoswap-labs/cnf/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-check grammar files whenever they change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := newWatcher(cmd.OutOrStdout(), args)
		if err != nil {
			return err
		}
		logger.Info("watching for changes", zap.Strings("paths", args))
		return w.Run(ctx)
	},
}

func newWatcher(out io.Writer, paths []string) (*internal.Watcher, error) {
	w, err := internal.NewWatcher(analyze.NewWithConfig(config), logger, config.Extensions)
	if err != nil {
		return nil, err
	}
	// reports arrive from several files at once
	var mu sync.Mutex
	w.OnReport(func(r *internal.Report) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "--- %s\n", r.Filename)
		printReports(out, []*internal.Report{r})
	})
	if err := w.Add(paths...); err != nil {
		return nil, err
	}
	return w, nil
}
