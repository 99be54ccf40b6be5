package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/algomatic/relprop/pkg/config"
	"github.com/algomatic/relprop/pkg/engine"
	"github.com/algomatic/relprop/pkg/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTransformCmd() *cobra.Command {
	var pipelinePath, configPath, key, storeDir, dbURL, output string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Materialize the feature matrix for a previously fitted engine",
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
			population, _, peripherals, err := buildTree(spec, enc)
			if err != nil {
				return err
			}

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
			start := time.Now()
			names, matrix, err := eng.Transform(population, peripherals, nil, func(done, total int) {
				logger.Debug("transform progress", zap.Int("done", done), zap.Int("total", total))
			})
			if err != nil {
				return fmt.Errorf("transforming: %w", err)
			}
			logger.Info("transform complete", zap.Duration("elapsed", time.Since(start)), zap.Int("rows", len(matrix)))

			return writeMatrix(output, names, matrix)
		},
	}

	cmd.Flags().StringVar(&pipelinePath, "pipeline", "", "path to the pipeline definition YAML file (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a hyperparameters YAML file (optional, defaults applied otherwise)")
	cmd.Flags().StringVar(&key, "key", "", "key the fitted engine was saved under (required)")
	cmd.Flags().StringVar(&storeDir, "store", "./relprop-store", "local directory the fitted engine was saved in, when --db-url is unset")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Postgres connection string; when set, the engine is loaded from there instead of --store")
	cmd.Flags().StringVar(&output, "output", "", "path for the output CSV (default: stdout)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	cmd.MarkFlagRequired("pipeline")

	return cmd
}

// writeMatrix writes names as a CSV header and matrix as its data
// rows, following probe's output-file-or-stdout csv.Writer convention.
func writeMatrix(path string, names []string, matrix [][]float64) error {
	var w *csv.Writer
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = csv.NewWriter(f)
	} else {
		w = csv.NewWriter(os.Stdout)
	}
	defer w.Flush()

	if err := w.Write(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	row := make([]string, len(names))
	for _, values := range matrix {
		for i, v := range values {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	return nil
}
