package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maysssss/photoapi/clientcli"
)

var version = "dev"

var profileName string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "photoctl",
	Short:   "Client for the photo gateway",
	Long: `Photoctl talks to a photo gateway: it logs in with the shared
password, then manages the groups document and photo blobs.

Server profiles are stored in ~/.photoctl/config.yaml.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "server profile to use (env: PHOTOCTL_PROFILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getConfigPath() string {
	if path := os.Getenv("PHOTOCTL_CONFIG"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".photoctl/config.yaml"
	}
	return filepath.Join(home, ".photoctl", "config.yaml")
}

// currentProfile resolves --profile, then PHOTOCTL_PROFILE, then the
// config file's default profile.
func currentProfile() (*clientcli.Profile, error) {
	name := profileName
	if name == "" {
		name = os.Getenv("PHOTOCTL_PROFILE")
	}

	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no config file; run 'photoctl configure add <name>' first")
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg.GetProfile(name)
}

func newClient() (*clientcli.Client, error) {
	profile, err := currentProfile()
	if err != nil {
		return nil, err
	}
	return clientcli.New(profile)
}
