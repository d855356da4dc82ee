package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/locallink/backend/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply listing migrations to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return fmt.Errorf("DATABASE_DRIVER is memory, nothing to migrate")
			}

			driver, err := store.ParseDriver(cfg.Database.Driver)
			if err != nil {
				return err
			}
			st, err := store.Open(driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := store.Migrate(cmd.Context(), st.DB(), driver); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), botStyle.Render("migrations applied to "+string(driver)))
			return nil
		},
	}
}
