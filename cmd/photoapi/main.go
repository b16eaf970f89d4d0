package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maysssss/photoapi/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "photoapi",
	Short:   "Password-gated photo gateway",
	Long: `Photoapi is a stateless HTTP gateway that authenticates a single
shared-secret client with signed bearer tokens and serves photo blobs plus
a JSON groups document from local storage.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")

		var files []string
		if configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: PHOTOAPI_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: photoapi.db, env: PHOTOAPI_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: PHOTOAPI_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
