package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Read or replace the groups document",
}

var groupsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the groups document",
	RunE:  runGroupsGet,
}

var groupsSetCmd = &cobra.Command{
	Use:   "set <file.json>",
	Short: "Replace the groups document with a local JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsSet,
}

func init() {
	groupsCmd.AddCommand(groupsGetCmd)
	groupsCmd.AddCommand(groupsSetCmd)

	rootCmd.AddCommand(groupsCmd)
}

func runGroupsGet(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	doc, err := client.Groups(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func runGroupsSet(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0]) //nolint:gosec // path comes from the user's CLI args
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("%s is not valid JSON", args[0])
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	if err := client.SaveGroups(cmd.Context(), data); err != nil {
		return err
	}

	fmt.Println("Groups document updated.")
	return nil
}
