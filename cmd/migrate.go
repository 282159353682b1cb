/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/ugel06/registry/internal/db"
	"github.com/ugel06/registry/internal/services"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations and create the bootstrap administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		backend, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		defer func() {
			_ = backend.Close()
		}()

		created, err := services.NewAdminService(backend.Admins()).
			EnsureBootstrapAdmin(cmd.Context(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin failed: %w", err)
		}
		if created {
			log.Printf("created bootstrap admin %q", cfg.Auth.AdminUsername)
		}
		log.Printf("%s schema is up to date", backend.Driver())
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations, dropping every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		if err := db.Migrate(cfg.Database, db.Down); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		log.Printf("%s schema reverted", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
