package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vacademy/internal/adapters/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := storage.SchemaVersion(a.db)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
	return nil
}
