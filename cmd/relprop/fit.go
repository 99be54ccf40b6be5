package main

import (
	"context"
	"fmt"
	"time"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/engine"
	"github.com/algomatic/relprop/pkg/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFitCmd() *cobra.Command {
	var pipelinePath, configPath, key, storeDir, dbURL string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a relational feature-propagation engine against a pipeline definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errMissingStoreKey
			}
			logger := newLogger(verbose)
			defer logger.Sync()

			spec, err := loadPipeline(pipelinePath)
			if err != nil {
				return err
			}
			hp, err := config.Load(configPath)
			if err != nil {
				return err
			}

			enc := schema.NewEncoding()
			population, root, peripherals, err := buildTree(spec, enc)
			if err != nil {
				return err
			}

			targets := spec.Targets
			if len(targets) == 0 {
				return fmt.Errorf("pipeline file %s: targets is required to fit", pipelinePath)
			}

			eng := engine.New(hp, root, enc, logger)
			start := time.Now()
			if err := eng.Fit(population, peripherals, targets); err != nil {
				return fmt.Errorf("fitting: %w", err)
			}
			logger.Info("fit complete", zap.Duration("elapsed", time.Since(start)))

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			store, err := resolveStore(ctx, dbURL, storeDir, logger)
			if err != nil {
				return err
			}
			defer mustCloseStore(store, logger)

			rec := eng.ToRecord(population, peripherals)
			if err := store.Save(ctx, key, rec); err != nil {
				return fmt.Errorf("saving fitted engine: %w", err)
			}
			logger.Info("saved fitted engine", zap.String("key", key), zap.String("fit_id", rec.FitID))
			return nil
		},
	}

	cmd.Flags().StringVar(&pipelinePath, "pipeline", "", "path to the pipeline definition YAML file (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a hyperparameters YAML file (optional, defaults applied otherwise)")
	cmd.Flags().StringVar(&key, "key", "", "key to save the fitted engine under (required)")
	cmd.Flags().StringVar(&storeDir, "store", "./relprop-store", "local directory to save the fitted engine in, when --db-url is unset")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Postgres connection string; when set, the engine is saved there instead of --store")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	cmd.MarkFlagRequired("pipeline")

	return cmd
}
