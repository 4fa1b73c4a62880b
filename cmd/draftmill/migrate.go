package main

import (
	"github.com/spf13/cobra"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/internal/archive"
)

func migrateCMD() *cobra.Command {
	var migDirDefault = "file://migrations"
	var cfgPath string
	var migDir string
	var direction string
	var steps int

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run archive database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			failOnMissing(cfg, config.OpMigrate)

			if migDir == "" {
				migDir = migDirDefault
			}
			return archive.Migrate(migDir, cfg.Archive.PostgresURL, direction, steps)
		},
	}
	migrate.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	migrate.Flags().StringVar(&migDir, "dir", migDirDefault, "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
