package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maysssss/photoapi"
	"github.com/maysssss/photoapi/config"
	"github.com/maysssss/photoapi/database"
	"github.com/maysssss/photoapi/filesystem"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize metadata database from storage files",
	Long: `Scan the storage directory and populate the metadata database
with entries for all existing blobs. This is useful when:
  - Setting up the gateway over an existing image directory
  - Recovering metadata after database loss
  - Migrating from another storage system`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		return fmt.Errorf("storage directory does not exist: %s", cfg.Storage.Path)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	storage := filesystem.NewStore(root)

	service, err := photoapi.NewPhotoService(repo, storage)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	indexed, err := service.Populate(ctx)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	slog.Info("initialization complete", "files_indexed", indexed)
	return nil
}
