package main

import (
	"github.com/spf13/cobra"

	"github.com/heartmarshall/course-search/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the search API. Migrations run first when database.auto_migrate is
set, and the seed catalog is loaded when loader.load_on_start is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context(), cfg, logger)
	},
}
