package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/relstore/pkg/database"
	"github.com/cuemby/relstore/pkg/log"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Open a database and run its two-phase catalog bootstrap",
	Long: `bootstrap opens a database with the given config, runs the
catalog's bootstrap transaction (reserving pg_catalog/public and
materializing the catalog's own pg_class rows and built-in pg_type
rows), and exits. Each run opens a new in-process database, so two
runs bootstrap two separate databases; a second Bootstrap call on the
same catalog is rejected.`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().StringP("config", "c", "", "Path to a relstored config file")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	name, cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := database.Open(context.Background(), name, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	log.Info(fmt.Sprintf("database %q bootstrapped (id=%s)", db.Name, db.ID))
	return nil
}
