/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/accountd/apiserver/config"
	"github.com/accountd/apiserver/internal/db"
	"github.com/accountd/apiserver/internal/services"
	"github.com/accountd/apiserver/internal/storage"
	"github.com/accountd/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// exportCmd uploads a JSON snapshot of all users to object storage.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the user directory to object storage",
	Long: `Writes every user (without password hashes) as a JSON document to the
bucket configured by STORAGE_BACKEND and prints the object location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)
		ctx := cmd.Context()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		exporter := services.NewExportService(store.NewUserRepository(dbConn), objects)
		key, err := exporter.Export(ctx)
		if err != nil {
			return err
		}

		location := objects.Location(key)
		logger.Info("user directory exported", slog.String("location", location))
		fmt.Fprintln(cmd.OutOrStdout(), location)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
