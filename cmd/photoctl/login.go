package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check the profile's credentials",
	Long:  `Exchange the profile's password for a token to verify the credentials work.`,
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	profile, err := currentProfile()
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	if err := client.Login(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Logged in to %s\n", profile.Endpoint)
	return nil
}
