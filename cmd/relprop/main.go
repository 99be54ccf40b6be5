// Command relprop fits and transforms relational feature-propagation
// engines from the command line.
//
// Usage:
//
//	relprop fit --pipeline pipeline.yaml --config hyperparameters.yaml --key customers-v1 --store ./store
//	relprop transform --pipeline pipeline.yaml --key customers-v1 --store ./store --output features.csv
//	relprop emit-sql --key customers-v1 --store ./store
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relprop",
		Short:         "Automated relational feature propagation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newFitCmd(), newTransformCmd(), newEmitSQLCmd())
	return root
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
