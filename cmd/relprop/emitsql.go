package main

import (
	"context"
	"fmt"
	"time"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/engine"
	"github.com/algomatic/relprop/pkg/schema"
	"github.com/algomatic/relprop/pkg/sqlgen"
	"github.com/spf13/cobra"
)

// newEmitSQLCmd takes no --pipeline: EmitSQL renders from the fitted
// Record's selected AbstractFeatures alone (table/column names, no
// source data), so this subcommand only needs the store.
func newEmitSQLCmd() *cobra.Command {
	var configPath, key, storeDir, dbURL string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "emit-sql",
		Short: "Render every selected feature of a previously fitted engine as SQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errMissingStoreKey
			}
			logger := newLogger(verbose)
			defer logger.Sync()

			hp, err := config.Load(configPath)
			if err != nil {
				return err
			}
			enc := schema.NewEncoding()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			store, err := resolveStore(ctx, dbURL, storeDir, logger)
			cancel()
			if err != nil {
				return err
			}
			defer mustCloseStore(store, logger)

			loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
			rec, err := store.Load(loadCtx, key)
			loadCancel()
			if err != nil {
				return fmt.Errorf("loading fitted engine %q: %w", key, err)
			}

			eng := engine.FromRecord(rec, hp, enc, logger)
			statements, err := eng.EmitSQL(sqlgen.Generic{})
			if err != nil {
				return fmt.Errorf("emitting SQL: %w", err)
			}
			for description, stmt := range statements {
				fmt.Printf("-- %s\n%s\n\n", description, stmt)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a hyperparameters YAML file (optional, defaults applied otherwise)")
	cmd.Flags().StringVar(&key, "key", "", "key the fitted engine was saved under (required)")
	cmd.Flags().StringVar(&storeDir, "store", "./relprop-store", "local directory the fitted engine was saved in, when --db-url is unset")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Postgres connection string; when set, the engine is loaded from there instead of --store")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	return cmd
}
