package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/course-search/internal/app"
)

var (
	loadFile      string
	loadBatchSize int
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert courses from a JSON or YAML file",
	Long: `Reads a course list and upserts it in one transaction. Without --file the
configured loader.seed_file is used, falling back to the embedded sample catalog.
A single invalid record rejects the whole file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if loadFile != "" {
			cfg.Loader.SeedFile = loadFile
		}
		if loadBatchSize > 0 {
			cfg.Loader.BatchSize = loadBatchSize
		}

		ctx := cmd.Context()
		deps, err := app.NewDeps(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer deps.Close()

		if cfg.Database.AutoMigrate {
			if err := deps.Migrator.Up(ctx); err != nil {
				return err
			}
		}

		res, err := deps.Loader.Load(ctx)
		if err != nil {
			return err
		}

		logger.Info("load finished",
			slog.String("source", res.Source),
			slog.Int64("written", res.Written),
		)
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d courses from %s (%d duplicates skipped)\n",
			res.Written, res.Source, res.Duplicates)
		return err
	},
}

func init() {
	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "course file (.json, .yaml or .yml)")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0, "rows per upsert statement (default from config)")
}
