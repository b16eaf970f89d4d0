package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <key>",
	Aliases: []string{"rm"},
	Short:   "Delete a photo",
	Long: `Delete the photo at the given key ("group-id/photo-id").
Deleting a key that does not exist is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if err := client.DeleteImage(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
